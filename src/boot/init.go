package boot

import (
	"ers/src/config"
	"ers/src/db"
	"ers/src/lib"
	"ers/src/models"
	"ers/src/types"
	"log"
	"time"

	"gorm.io/gorm"
)

func InitDb() *gorm.DB {
	db := db.GetDb()

	err := db.AutoMigrate(
		&models.User{},
		&models.Event{},
		&models.TicketTier{},
		&models.Registration{},
		&models.Transaction{},
		&models.Ticket{},
		&models.Reward{},
	)
	if err != nil {
		log.Fatalf("error migration: %s", err.Error())
	}

	return db
}

func InitScheduler() {
	id, err := lib.CreateCronJob(ExpireAbandonedRegistrations, 15*time.Minute)
	if err != nil {
		log.Printf("Error scheduling reconciliation job: %s\n", err.Error())
		return
	}
	log.Printf("Reconciliation job scheduled: %s\n", *id)
	sched, err := lib.GetScheduler()
	if err != nil {
		log.Println("An error has occurred. Check logs for info")
		return
	}
	sched.Start()
}

func StopScheduler() {
	sched, err := lib.GetScheduler()
	if err != nil {
		log.Println("Error retrieving Scheduler. Check logs for info")
		return
	}
	err = sched.Shutdown()
	if err != nil {
		log.Println("An error has occurred while stopping Scheduler. Check logs for info")
		return
	}
}

// ExpireAbandonedRegistrations reconciles registrations left pending after
// the user walked away mid-payment: anything pending past the TTL is marked
// expired and its transaction, if one was attached, is expired with it.
func ExpireAbandonedRegistrations() {
	d := db.GetDb()
	cutoff := time.Now().Add(-time.Duration(config.ABANDONED_REGISTRATION_TTL_MINUTES) * time.Minute)
	err := d.Transaction(func(tx *gorm.DB) error {
		var stale []models.Registration
		if err := tx.
			Model(&models.Registration{}).
			Where("status = ? AND created_at < ?", types.REGISTRATION_PENDING, cutoff).
			Find(&stale).
			Error; err != nil {
			return err
		}
		if len(stale) == 0 {
			return nil
		}
		ids := make([]any, 0, len(stale))
		txnIds := make([]any, 0, len(stale))
		for _, reg := range stale {
			ids = append(ids, reg.ID)
			if reg.TransactionID != nil {
				txnIds = append(txnIds, *reg.TransactionID)
			}
		}
		if err := tx.
			Model(&models.Registration{}).
			Where("id IN (?)", ids).
			Update("status", types.REGISTRATION_EXPIRED).
			Error; err != nil {
			return err
		}
		if len(txnIds) > 0 {
			if err := tx.
				Model(&models.Transaction{}).
				Where("id IN (?) AND status = ?", txnIds, types.TRANSACTION_PENDING).
				Update("status", types.TRANSACTION_EXPIRED).
				Error; err != nil {
				return err
			}
		}
		log.Printf("Expired %d abandoned registration(s)\n", len(stale))
		return nil
	})
	if err != nil {
		log.Printf("Error expiring abandoned registrations: %s\n", err.Error())
	}
}
