package services

import (
	"context"
	"crypto/rand"
	"errors"
	"log/slog"
	"strings"

	"github.com/baharkarakas/qrpay-backend/internal/models"
	"github.com/baharkarakas/qrpay-backend/internal/qrcode"
	repo "github.com/baharkarakas/qrpay-backend/internal/repository"
)

const (
	uniqueIDLength   = 10
	uniqueIDAttempts = 5
	uniqueIDAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789_-"
)

// NewUniqueID returns a random URL-safe store identifier.
func NewUniqueID() (string, error) {
	buf := make([]byte, uniqueIDLength)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	for i, b := range buf {
		// 64 symbols, so the low six bits map without bias
		buf[i] = uniqueIDAlphabet[b&63]
	}
	return string(buf), nil
}

type ProfileService struct {
	consumers  repo.Consumers
	stores     repo.Stores
	identities repo.Identities
	audit      repo.AuditLogs
	wp         Submitter
	logger     *slog.Logger

	newUniqueID func() (string, error)
}

func NewProfileService(repos repo.Repositories, wp Submitter, logger *slog.Logger) *ProfileService {
	if logger == nil {
		logger = slog.Default()
	}
	return &ProfileService{
		consumers:   repos.Consumers,
		stores:      repos.Stores,
		identities:  repos.Identities,
		audit:       repos.AuditLogs,
		wp:          wp,
		logger:      logger,
		newUniqueID: NewUniqueID,
	}
}

type RegisterConsumerInput struct {
	WalletAddress string `json:"walletAddress"`
	Name          string `json:"name"`
	Description   string `json:"description"`
}

type RegisterStoreInput struct {
	WalletAddress string  `json:"walletAddress"`
	Name          string  `json:"name"`
	Description   string  `json:"description"`
	EventLink     *string `json:"eventLink"`
}

type UpdateProfileInput struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	EventLink   *string `json:"eventLink"`
}

func (in UpdateProfileInput) toModel() (models.ProfileUpdate, error) {
	u := models.ProfileUpdate{Description: in.Description, EventLink: in.EventLink}
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return u, invalid("name must not be empty")
		}
		u.Name = &name
	}
	if in.EventLink != nil {
		if err := models.ValidateLink(*in.EventLink); err != nil {
			return u, invalid(err.Error())
		}
	}
	return u, nil
}

func (s *ProfileService) audited(entity, id, action, actor string) {
	l := models.AuditLog{EntityType: entity, EntityID: id, Action: action, Actor: actor}
	ok := s.wp.Submit(func() {
		if err := s.audit.Create(context.Background(), l); err != nil {
			s.logger.Error("audit write failed", "entity", entity, "entity_id", id, "err", err)
		}
	})
	if !ok {
		s.logger.Warn("audit write dropped", "entity", entity, "entity_id", id)
	}
}

// ensureUnregistered rejects wallets that already hold a role.
func (s *ProfileService) ensureUnregistered(ctx context.Context, wallet string) error {
	id, err := s.identities.Resolve(ctx, wallet)
	if err != nil {
		return internal("failed to resolve wallet", err)
	}
	if id.Role != models.RoleUnregistered {
		return conflict("wallet already registered as "+string(id.Role), models.ErrDuplicate)
	}
	return nil
}

// ----------------- Resolve -----------------

func (s *ProfileService) Resolve(ctx context.Context, wallet string) (models.Identity, error) {
	wallet = strings.TrimSpace(wallet)
	if wallet == "" {
		return models.Identity{}, invalid("walletAddress required")
	}
	id, err := s.identities.Resolve(ctx, wallet)
	if err != nil {
		return models.Identity{}, internal("failed to resolve wallet", err)
	}
	return id, nil
}

// ----------------- Consumers -----------------

func (s *ProfileService) RegisterConsumer(ctx context.Context, in RegisterConsumerInput) (models.Consumer, error) {
	c := models.Consumer{
		WalletAddress: strings.TrimSpace(in.WalletAddress),
		Name:          in.Name,
		Description:   in.Description,
	}
	if err := c.Validate(); err != nil {
		return models.Consumer{}, invalid(err.Error())
	}
	if err := s.ensureUnregistered(ctx, c.WalletAddress); err != nil {
		return models.Consumer{}, err
	}
	created, err := s.consumers.Create(ctx, c)
	if errors.Is(err, models.ErrDuplicate) {
		return models.Consumer{}, conflict("wallet already registered", err)
	}
	if err != nil {
		return models.Consumer{}, internal("failed to create consumer", err)
	}
	s.audited(models.AuditEntityConsumer, created.ID, models.AuditCreated, created.WalletAddress)
	return created, nil
}

func (s *ProfileService) GetConsumer(ctx context.Context, wallet string) (models.Consumer, error) {
	if strings.TrimSpace(wallet) == "" {
		return models.Consumer{}, invalid("walletAddress required")
	}
	c, err := s.consumers.GetByWallet(ctx, wallet)
	if err != nil {
		return models.Consumer{}, lookupErr("consumer", err)
	}
	return c, nil
}

func (s *ProfileService) UpdateConsumer(ctx context.Context, wallet string, in UpdateProfileInput) (models.Consumer, error) {
	if strings.TrimSpace(wallet) == "" {
		return models.Consumer{}, invalid("walletAddress required")
	}
	if in.EventLink != nil {
		return models.Consumer{}, invalid("eventLink is only valid for stores")
	}
	u, err := in.toModel()
	if err != nil {
		return models.Consumer{}, err
	}
	c, err := s.consumers.Update(ctx, wallet, u)
	if err != nil {
		return models.Consumer{}, lookupErr("consumer", err)
	}
	s.audited(models.AuditEntityConsumer, c.ID, models.AuditProfileEdit, wallet)
	return c, nil
}

// ----------------- Stores -----------------

func (s *ProfileService) RegisterStore(ctx context.Context, in RegisterStoreInput) (models.Store, error) {
	st := models.Store{
		WalletAddress: strings.TrimSpace(in.WalletAddress),
		Name:          in.Name,
		Description:   in.Description,
		EventLink:     in.EventLink,
	}
	if err := st.Validate(); err != nil {
		return models.Store{}, invalid(err.Error())
	}
	if err := s.ensureUnregistered(ctx, st.WalletAddress); err != nil {
		return models.Store{}, err
	}

	var (
		created models.Store
		err     error
	)
	for attempt := 0; attempt < uniqueIDAttempts; attempt++ {
		if st.UniqueID, err = s.newUniqueID(); err != nil {
			return models.Store{}, internal("failed to allocate store id", err)
		}
		created, err = s.stores.Create(ctx, st)
		if !errors.Is(err, models.ErrDuplicate) {
			break
		}
		s.logger.Warn("store id collision, retrying", "attempt", attempt+1)
	}
	if errors.Is(err, models.ErrDuplicate) {
		return models.Store{}, conflict("could not register store", err)
	}
	if err != nil {
		return models.Store{}, internal("failed to create store", err)
	}

	if err := s.attachQRCode(ctx, &created); err != nil {
		return models.Store{}, err
	}
	s.audited(models.AuditEntityStore, created.ID, models.AuditCreated, created.WalletAddress)
	return created, nil
}

func (s *ProfileService) attachQRCode(ctx context.Context, st *models.Store) error {
	qr, err := qrcode.EncodeDataURL(st.UniqueID)
	if err != nil {
		return internal("failed to render store code", err)
	}
	if err := s.stores.SetQRCode(ctx, st.ID, qr); err != nil {
		return internal("failed to save store code", err)
	}
	st.QRCode = qr
	return nil
}

func (s *ProfileService) GetStore(ctx context.Context, wallet string) (models.Store, error) {
	if strings.TrimSpace(wallet) == "" {
		return models.Store{}, invalid("walletAddress required")
	}
	st, err := s.stores.GetByWallet(ctx, wallet)
	if err != nil {
		return models.Store{}, lookupErr("store", err)
	}
	return st, nil
}

func (s *ProfileService) GetStoreByUniqueID(ctx context.Context, uniqueID string) (models.Store, error) {
	if strings.TrimSpace(uniqueID) == "" {
		return models.Store{}, invalid("uniqueId required")
	}
	st, err := s.stores.GetByUniqueID(ctx, uniqueID)
	if err != nil {
		return models.Store{}, lookupErr("store", err)
	}
	return st, nil
}

func (s *ProfileService) UpdateStore(ctx context.Context, wallet string, in UpdateProfileInput) (models.Store, error) {
	if strings.TrimSpace(wallet) == "" {
		return models.Store{}, invalid("walletAddress required")
	}
	u, err := in.toModel()
	if err != nil {
		return models.Store{}, err
	}
	st, err := s.stores.Update(ctx, wallet, u)
	if err != nil {
		return models.Store{}, lookupErr("store", err)
	}
	if st.QRCode == "" {
		if err := s.attachQRCode(ctx, &st); err != nil {
			return models.Store{}, err
		}
	}
	s.audited(models.AuditEntityStore, st.ID, models.AuditProfileEdit, wallet)
	return st, nil
}
