package stub

import (
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/winnerx0/jille-client/internal/logging"
	"github.com/winnerx0/jille-client/internal/model"
)

// Handlers implements the REST surface of the backend contract.
type Handlers struct {
	store    *Store
	issuer   *TokenIssuer
	broker   *Broker
	validate *validator.Validate
}

func NewHandlers(store *Store, issuer *TokenIssuer, broker *Broker) *Handlers {
	return &Handlers{
		store:    store,
		issuer:   issuer,
		broker:   broker,
		validate: validator.New(),
	}
}

func (h *Handlers) Register(c fiber.Ctx) error {
	var req model.RegisterRequest
	if err := c.Bind().Body(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "failed to parse body"})
	}
	if err := h.validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": err.Error()})
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": "failed to hash password"})
	}

	user, err := h.store.CreateUser(req.Username, req.Email, hashed)
	if err != nil {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"message": "email already registered"})
	}

	tokens, err := h.issuer.Issue(user.ID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": err.Error()})
	}
	return c.Status(fiber.StatusCreated).JSON(model.Envelope[model.AuthTokens]{
		Message: "user registered",
		Data:    tokens,
	})
}

func (h *Handlers) Login(c fiber.Ctx) error {
	var req model.LoginRequest
	if err := c.Bind().Body(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "failed to parse body"})
	}
	if err := h.validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": err.Error()})
	}

	user, err := h.store.UserByEmail(req.Email)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "invalid credentials"})
	}
	if bcrypt.CompareHashAndPassword(user.PasswordHash, []byte(req.Password)) != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "invalid credentials"})
	}

	tokens, err := h.issuer.Issue(user.ID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": err.Error()})
	}
	return c.JSON(model.Envelope[model.AuthTokens]{Message: "login successful", Data: tokens})
}

func (h *Handlers) Refresh(c fiber.Ctx) error {
	var req model.RefreshRequest
	if err := c.Bind().Body(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "failed to parse body"})
	}

	tokens, err := h.issuer.Rotate(req.RefreshToken)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "invalid refresh token"})
	}
	return c.JSON(model.Envelope[model.AuthTokens]{Message: "token refreshed", Data: tokens})
}

func (h *Handlers) GetUser(c fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("userID"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "invalid user id"})
	}
	user, err := h.store.UserByID(id)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"message": "user not found"})
	}
	return c.JSON(model.Envelope[model.UserResponse]{
		Message: "ok",
		Data: model.UserResponse{
			ID:        user.ID.String(),
			Email:     user.Email,
			PollCount: h.store.PollCount(user.ID.String()),
		},
	})
}

func (h *Handlers) CreatePoll(c fiber.Ctx) error {
	var req model.CreatePollRequest
	if err := c.Bind().Body(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "failed to parse body"})
	}
	if err := h.validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": err.Error()})
	}
	if !req.ExpiresAt.After(time.Now()) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "expires_at must be in the future"})
	}

	poll := h.store.CreatePoll(callerID(c), req)
	logging.Logger.Info().Str("poll_id", poll.ID).Msg("stub: poll created")
	return c.Status(fiber.StatusCreated).JSON(model.Envelope[model.Poll]{
		Message: "poll created",
		Data:    *poll,
	})
}

func (h *Handlers) ListPolls(c fiber.Ctx) error {
	return c.JSON(model.Envelope[[]model.Poll]{
		Message: "ok",
		Data:    h.store.Polls(callerID(c)),
	})
}

func (h *Handlers) GetPoll(c fiber.Ctx) error {
	poll, err := h.store.Poll(c.Params("pollID"), callerID(c))
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"message": "poll not found"})
	}
	return c.JSON(poll)
}

func (h *Handlers) GetPollView(c fiber.Ctx) error {
	poll, err := h.store.PollForCreator(c.Params("pollID"), callerID(c))
	switch {
	case errors.Is(err, ErrNotCreator):
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"message": "live results are restricted to the poll creator"})
	case err != nil:
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"message": "poll not found"})
	}
	return c.JSON(poll)
}

func (h *Handlers) DeletePoll(c fiber.Ctx) error {
	err := h.store.DeletePoll(c.Params("pollID"), callerID(c))
	switch {
	case errors.Is(err, ErrNotCreator):
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"message": "only the creator can delete a poll"})
	case err != nil:
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"message": "poll not found"})
	}
	return c.JSON(fiber.Map{"message": "poll deleted"})
}

func (h *Handlers) Vote(c fiber.Ctx) error {
	var req model.VoteRequest
	if err := c.Bind().Body(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "failed to parse body"})
	}
	if err := h.validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": err.Error()})
	}

	_, err := h.store.Vote(req.PollID, req.OptionID, callerID(c), time.Now())
	switch {
	case errors.Is(err, ErrPollNotFound), errors.Is(err, ErrOptionNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"message": err.Error()})
	case errors.Is(err, ErrPollExpired):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": err.Error()})
	case errors.Is(err, ErrAlreadyVoted):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"message": err.Error()})
	case err != nil:
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": err.Error()})
	}

	h.broker.Publish(model.Event{
		Type:    model.EventPollVote,
		Payload: mustJSON(model.VotePayload{PollID: req.PollID, OptionID: req.OptionID}),
	})
	return c.JSON(model.VoteResponse{Message: "vote recorded"})
}

func callerID(c fiber.Ctx) string {
	id, _ := c.Locals("userID").(string)
	return id
}
