package store

import (
	"context"
	"errors"
	"log"

	"ers/src/db"
	"ers/src/models"
	"ers/src/types"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

// GormStore is the postgres-backed store used outside of tests.
type GormStore struct{}

func NewGormStore() *GormStore {
	return &GormStore{}
}

func classify(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrDuplicateTicket
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return ErrDuplicateTicket
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return errors.Join(ErrUnavailable, err)
}

func (s *GormStore) CreatePendingRegistration(ctx context.Context, reg *models.Registration) error {
	d := db.GetDb()
	err := d.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		reg.Status = types.REGISTRATION_PENDING
		if err := tx.Create(reg).Error; err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		log.Printf("Error creating Registration: %s\n", err.Error())
	}
	return classify(err)
}

func (s *GormStore) AttachTransaction(ctx context.Context, regID uuid.UUID, txn *models.Transaction) error {
	d := db.GetDb()
	err := d.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		txn.RegistrationID = regID
		if err := tx.Create(txn).Error; err != nil {
			return err
		}
		if err := tx.
			Model(&models.Registration{}).
			Where("id = ?", regID).
			Update("transaction_id", txn.ID).
			Error; err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		log.Printf("Error attaching Transaction to Registration [%s]: %s\n", regID, err.Error())
	}
	return classify(err)
}

func (s *GormStore) CreateTicket(ctx context.Context, ticket *models.Ticket) error {
	d := db.GetDb()
	err := d.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(ticket).Error; err != nil {
			return err
		}
		if err := tx.
			Model(&models.Registration{}).
			Where("id = ?", ticket.RegistrationID).
			Update("status", types.REGISTRATION_CONFIRMED).
			Error; err != nil {
			return err
		}
		reward := models.Reward{
			UserID:   ticket.UserID,
			TicketID: ticket.ID,
			Points:   ticket.Price.IntPart(),
			Reason:   "ticket purchase",
		}
		if err := tx.Create(&reward).Error; err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		log.Printf("Error creating Ticket [%s]: %s\n", ticket.TicketNumber, err.Error())
	}
	return classify(err)
}

func (s *GormStore) UpdateRegistrationStatus(ctx context.Context, id uuid.UUID, status types.RegistrationStatus) error {
	d := db.GetDb()
	err := d.WithContext(ctx).
		Model(&models.Registration{}).
		Where("id = ?", id).
		Update("status", status).
		Error
	return classify(err)
}

func (s *GormStore) FindEvent(ctx context.Context, id uint) (*models.Event, error) {
	d := db.GetDb()
	var event models.Event
	if err := d.WithContext(ctx).
		Model(&models.Event{}).
		Where(&models.Event{ID: id}).
		Preload("Tiers").
		First(&event).
		Error; err != nil {
		return nil, classify(err)
	}
	return &event, nil
}

func (s *GormStore) ListPublishedEvents(ctx context.Context) ([]models.Event, error) {
	d := db.GetDb()
	var events []models.Event
	if err := d.WithContext(ctx).
		Model(&models.Event{}).
		Where(&models.Event{Status: types.EVENT_PUBLISHED}).
		Preload("Tiers").
		Order("date_time asc").
		Limit(100).
		Find(&events).
		Error; err != nil {
		return nil, classify(err)
	}
	return events, nil
}

func (s *GormStore) ListTicketsByUser(ctx context.Context, userID uint) ([]models.Ticket, error) {
	d := db.GetDb()
	var tickets []models.Ticket
	if err := d.WithContext(ctx).
		Model(&models.Ticket{}).
		Where(&models.Ticket{UserID: userID}).
		Order("created_at desc").
		Limit(100).
		Find(&tickets).
		Error; err != nil {
		return nil, classify(err)
	}
	return tickets, nil
}

func (s *GormStore) FindTicket(ctx context.Context, id uint, userID uint) (*models.Ticket, error) {
	d := db.GetDb()
	var ticket models.Ticket
	if err := d.WithContext(ctx).
		Model(&models.Ticket{}).
		Where(&models.Ticket{ID: id, UserID: userID}).
		First(&ticket).
		Error; err != nil {
		return nil, classify(err)
	}
	return &ticket, nil
}

func (s *GormStore) UpdateTicketStatus(ctx context.Context, id uint, from, to types.TicketStatus) error {
	d := db.GetDb()
	res := d.WithContext(ctx).
		Model(&models.Ticket{}).
		Where(&models.Ticket{ID: id, Status: from}).
		Update("status", to)
	if res.Error != nil {
		return classify(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *GormStore) ListRewardsByUser(ctx context.Context, userID uint) ([]models.Reward, int64, error) {
	d := db.GetDb()
	var rewards []models.Reward
	if err := d.WithContext(ctx).
		Model(&models.Reward{}).
		Where(&models.Reward{UserID: userID}).
		Order("created_at desc").
		Limit(100).
		Find(&rewards).
		Error; err != nil {
		return nil, 0, classify(err)
	}
	var total int64
	for _, r := range rewards {
		total += r.Points
	}
	return rewards, total, nil
}

func (s *GormStore) FindOrCreateUser(ctx context.Context, email, name string) (*models.User, error) {
	d := db.GetDb()
	var user models.User
	err := d.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.
			Model(&models.User{}).
			Where(&models.User{Email: email}).
			First(&user).
			Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			user = models.User{Email: email, Name: name}
			return tx.Create(&user).Error
		}
		return err
	})
	if err != nil {
		return nil, classify(err)
	}
	return &user, nil
}

func (s *GormStore) SettleTransaction(ctx context.Context, referenceID string, status types.TransactionStatus) error {
	d := db.GetDb()
	err := d.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var txn models.Transaction
		if err := tx.
			Model(&models.Transaction{}).
			Where("reference_id = ?", referenceID).
			First(&txn).
			Error; err != nil {
			return err
		}
		if err := tx.
			Model(&models.Transaction{}).
			Where("id = ?", txn.ID).
			Update("status", status).
			Error; err != nil {
			return err
		}
		if status == types.TRANSACTION_CANCELED {
			if err := tx.
				Model(&models.Registration{}).
				Where("id = ? AND status = ?", txn.RegistrationID, types.REGISTRATION_PENDING).
				Update("status", types.REGISTRATION_CANCELLED).
				Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		log.Printf("Error settling Transaction [%s]: %s\n", referenceID, err.Error())
	}
	return classify(err)
}
