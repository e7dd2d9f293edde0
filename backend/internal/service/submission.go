package service

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/itchan-dev/anniv/shared/domain"
	internal_errors "github.com/itchan-dev/anniv/shared/errors"
	"github.com/itchan-dev/anniv/shared/logger"
	"github.com/itchan-dev/anniv/shared/middleware/metrics"
	"github.com/samber/lo"
)

type SubmissionService interface {
	Submit(ctx context.Context, sub domain.Submission) (domain.SubmissionResult, error)
}

type SubmissionValidator interface {
	Email(email *string) error
	Name(name string) (string, error)
	Content(text string) (string, error)
}

type EmailHasher interface {
	Hash(email string) ([]byte, error)
}

type Submission struct {
	storage   SubmissionStorage
	assets    AssetStore
	ingester  Ingester
	validator SubmissionValidator
	hasher    EmailHasher
	timeout   time.Duration
	log       *slog.Logger
}

func NewSubmission(
	storage SubmissionStorage,
	assets AssetStore,
	ingester Ingester,
	validator SubmissionValidator,
	hasher EmailHasher,
	timeout time.Duration,
) SubmissionService {
	return &Submission{
		storage:   storage,
		assets:    assets,
		ingester:  ingester,
		validator: validator,
		hasher:    hasher,
		timeout:   timeout,
		log:       logger.Named("submission"),
	}
}

type submissionState int

const (
	stateValidating submissionState = iota
	stateUserInserting
	stateAvatarIngesting
	stateRecordInserting
	stateCommitting
	stateDone
	stateCompensating
	stateFailed
)

func (s submissionState) String() string {
	switch s {
	case stateValidating:
		return "validating"
	case stateUserInserting:
		return "userInserting"
	case stateAvatarIngesting:
		return "avatarIngesting"
	case stateRecordInserting:
		return "recordInserting"
	case stateCommitting:
		return "committing"
	case stateDone:
		return "done"
	case stateCompensating:
		return "compensating"
	default:
		return "failed"
	}
}

// validSubmission is a submission that passed every business rule.
type validSubmission struct {
	name      domain.UserName
	emailHash domain.EmailHash
	content   domain.MsgText
	avatar    []string
}

// Submit stores a message together with its author and avatar.
//
// The user, avatar and message rows share one transaction. Asset files are
// written before commit and are not covered by it, so the asset directory is
// registered for compensation as soon as the user id is known and removed on
// any failure. The work is detached from the caller's cancellation, a client
// disconnect does not abort it, and is bounded by the submission timeout.
func (s *Submission) Submit(ctx context.Context, sub domain.Submission) (res domain.SubmissionResult, err error) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.timeout)
	defer cancel()

	log := s.log.With("name", sub.Name)
	state := stateValidating
	enter := func(next submissionState) {
		log.Debug("submission state", "from", state, "to", next)
		state = next
	}
	defer func() {
		metrics.Submissions.WithLabelValues(outcome(err)).Inc()
	}()

	valid, err := s.validate(sub)
	if err != nil {
		enter(stateFailed)
		return domain.SubmissionResult{}, err
	}

	var undo compensation
	err = s.storage.WithSubmissionTx(ctx, func(tx SubmissionTx) error {
		enter(stateUserInserting)
		userId, err := tx.InsertUser(ctx, valid.name, valid.emailHash)
		if err != nil {
			return err
		}
		log = log.With("user_id", userId)

		enter(stateAvatarIngesting)
		undo.add("remove assets", func(ctx context.Context) error {
			return s.assets.RemoveUser(ctx, userId)
		})
		if err := s.assets.Prepare(ctx, userId); err != nil {
			return err
		}
		frames, err := s.ingester.Ingest(ctx, userId, valid.avatar)
		if err != nil {
			return err
		}

		enter(stateRecordInserting)
		if err := tx.InsertAvatar(ctx, userId, frames); err != nil {
			return err
		}
		res, err = tx.InsertMessage(ctx, userId, valid.content)
		if err != nil {
			return err
		}

		enter(stateCommitting)
		return nil
	})
	if err != nil {
		if !undo.empty() {
			enter(stateCompensating)
			undo.run(ctx, log)
		}
		enter(stateFailed)
		log.Info("submission failed", "error", err)
		return domain.SubmissionResult{}, err
	}

	enter(stateDone)
	log.Info("submission accepted", "message_id", res.Id)
	return res, nil
}

// validate applies business rules. It has no side effects.
func (s *Submission) validate(sub domain.Submission) (validSubmission, error) {
	if err := s.validator.Email(sub.Email); err != nil {
		return validSubmission{}, err
	}
	name, err := s.validator.Name(sub.Name)
	if err != nil {
		return validSubmission{}, err
	}
	content, err := s.validator.Content(sub.Content)
	if err != nil {
		return validSubmission{}, err
	}
	// the same trimmed list is validated and fetched
	avatar := lo.Map(sub.Avatar, func(uri string, _ int) string { return strings.TrimSpace(uri) })
	if err := s.ingester.Validate(avatar); err != nil {
		return validSubmission{}, err
	}
	emailHash, err := s.hasher.Hash(*sub.Email)
	if err != nil {
		return validSubmission{}, internal_errors.Validation("Email is invalid")
	}
	return validSubmission{name: name, emailHash: emailHash, content: content, avatar: avatar}, nil
}

func outcome(err error) string {
	if err == nil {
		return "accepted"
	}
	var ingestion *internal_errors.IngestionError
	if errors.As(err, &ingestion) {
		return "ingestion_failed"
	}
	var e *internal_errors.ErrorWithStatusCode
	if errors.As(err, &e) {
		switch e.StatusCode {
		case http.StatusConflict:
			return "conflict"
		case http.StatusBadRequest:
			return "invalid"
		}
	}
	return "error"
}
