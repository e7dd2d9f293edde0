package api

import (
	"time"

	"github.com/itchan-dev/anniv/shared/domain"
	"github.com/samber/lo"
)

// Request DTOs

type AuthorRequest struct {
	Name   string   `json:"name" validate:"required"`
	Avatar []string `json:"avatar" validate:"required,min=1"`
	Email  *string  `json:"email"`
}

type CreateMessageRequest struct {
	Author  AuthorRequest `json:"author"`
	Content string        `json:"content" validate:"required"`
}

func (r CreateMessageRequest) Submission() domain.Submission {
	return domain.Submission{
		Name:    r.Author.Name,
		Avatar:  r.Author.Avatar,
		Email:   r.Author.Email,
		Content: r.Content,
	}
}

type ModerateMessageRequest struct {
	Id      int64 `json:"id" validate:"required,gt=0"`
	Approve *bool `json:"approve" validate:"required"`
}

type DeleteMessageRequest struct {
	Id  int64 `json:"id" validate:"required,gt=0"`
	Ban bool  `json:"ban"`
}

// Response DTOs

type CreateMessageResponse struct {
	Id        int64     `json:"id"`
	Timestamp time.Time `json:"timestamp"`
}

type AuthorResponse struct {
	Name   string   `json:"name"`
	Avatar []string `json:"avatar"`
}

type MessageResponse struct {
	Id        int64          `json:"id"`
	Timestamp time.Time      `json:"timestamp"`
	Author    AuthorResponse `json:"author"`
	Content   string         `json:"content"`
}

// ModerationMessageResponse additionally exposes the visibility flag.
type ModerationMessageResponse struct {
	MessageResponse
	Visible bool `json:"visible"`
}

type PageResponse[T any] struct {
	Page      int `json:"page"`
	PageSize  int `json:"pageSize"`
	PageCount int `json:"pageCount"`
	PageData  []T `json:"pageData"`
}

type ErrorResponse struct {
	Status  int    `json:"status"`
	Message string `json:"message"`
}

type PageNotFoundResponse struct {
	ErrorResponse
	PageCount int `json:"pageCount"`
}

func NewMessageResponse(m domain.Message) MessageResponse {
	avatar := m.Author.Avatar
	if avatar == nil {
		avatar = []string{}
	}
	return MessageResponse{
		Id:        m.Id,
		Timestamp: m.Timestamp,
		Author:    AuthorResponse{Name: m.Author.Name, Avatar: avatar},
		Content:   m.Content,
	}
}

func NewPageResponse(p domain.Page) PageResponse[MessageResponse] {
	return PageResponse[MessageResponse]{
		Page:      p.Page,
		PageSize:  p.PageSize,
		PageCount: p.PageCount,
		PageData: lo.Map(p.Items, func(m domain.Message, _ int) MessageResponse {
			return NewMessageResponse(m)
		}),
	}
}

func NewModerationPageResponse(p domain.Page) PageResponse[ModerationMessageResponse] {
	return PageResponse[ModerationMessageResponse]{
		Page:      p.Page,
		PageSize:  p.PageSize,
		PageCount: p.PageCount,
		PageData: lo.Map(p.Items, func(m domain.Message, _ int) ModerationMessageResponse {
			return ModerationMessageResponse{MessageResponse: NewMessageResponse(m), Visible: m.Visible}
		}),
	}
}
