package utils

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/hex"
	"ers/src/config"
	"ers/src/db"
	"ers/src/models"
	"ers/src/types"
	"io"
	"log"
	"time"

	"github.com/gosimple/slug"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

func CreateNewEvent(params *types.CreateEventRequestBody, organizerId uint) (uint, error) {
	dateTime, err := time.Parse(config.TIME_PARSE_FORMAT, params.DateTime)
	if err != nil {
		log.Printf("Error parsing date_time: %s\n", err.Error())
		return 0, err
	}
	dateTime = time.Date(
		dateTime.Year(),
		dateTime.Month(),
		dateTime.Day(),
		dateTime.Hour(),
		dateTime.Minute(),
		0,
		0,
		dateTime.Location(),
	)

	event := models.Event{
		Title:       params.Title,
		Slug:        slug.Make(params.Title),
		Description: params.Description,
		Location:    params.Location,
		DateTime:    dateTime,
		Image:       params.Image,
		Status:      types.EVENT_DRAFT,
		OrganizerID: organizerId,
	}

	var eventId uint
	d := db.GetDb()
	err = d.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&event).Error; err != nil {
			return err
		}
		eventId = event.ID
		for _, t := range params.Tiers {
			if _, err := createTier(tx, event.ID, &t); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		log.Printf("Error creating Event: %s\n", err.Error())
		return 0, err
	}
	return eventId, nil
}

func CreateNewTier(eventId uint, params *types.CreateTierRequestBody) (uint, error) {
	var tierId uint
	d := db.GetDb()
	err := d.Transaction(func(tx *gorm.DB) error {
		id, err := createTier(tx, eventId, params)
		if err != nil {
			return err
		}
		tierId = id
		return nil
	})
	if err != nil {
		log.Printf("Error creating TicketTier: %s\n", err.Error())
		return 0, err
	}
	return tierId, nil
}

func createTier(tx *gorm.DB, eventId uint, params *types.CreateTierRequestBody) (uint, error) {
	price, err := decimal.NewFromString(params.Price)
	if err != nil || price.IsNegative() {
		log.Printf("Error parsing tier price: %v\n", err)
		return 0, err
	}
	maxPerTxn := params.MaxPerTransaction
	if maxPerTxn < 1 {
		maxPerTxn = 1
	}
	available := true
	if params.Available != nil {
		available = *params.Available
	}
	tier := models.TicketTier{
		EventID:           eventId,
		Name:              params.Name,
		Description:       params.Description,
		Price:             price,
		Currency:          params.Currency,
		Benefits:          types.StringSlice(params.Benefits),
		Available:         available,
		MaxPerTransaction: maxPerTxn,
	}
	if err := tx.Create(&tier).Error; err != nil {
		return 0, err
	}
	return tier.ID, nil
}

func PublishEvent(id uint) error {
	d := db.GetDb()
	err := d.Transaction(func(tx *gorm.DB) error {
		err := tx.
			Model(&models.Event{}).
			Where("id = ? AND status = ?", id, types.EVENT_DRAFT).
			Update("status", types.EVENT_PUBLISHED).Error
		if err != nil {
			return err
		}
		return nil
	})
	return err
}

func CloseEvent(id uint) error {
	d := db.GetDb()
	return d.Transaction(func(tx *gorm.DB) error {
		return tx.
			Model(&models.Event{}).
			Where("id = ? AND status = ?", id, types.EVENT_PUBLISHED).
			Update("status", types.EVENT_CLOSED).Error
	})
}

func EncryptMessage(key []byte, message string) (string, error) {
	plaintext := []byte(message)

	block, err := aes.NewCipher(key)
	if err != nil {
		return "", err
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", err
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", err
	}

	cipherText := gcm.Seal(nonce, nonce, plaintext, nil)
	encodedString := hex.EncodeToString(cipherText)

	return encodedString, nil
}

func DecryptMessage(key []byte, message string) (*string, error) {
	cipherText, err := hex.DecodeString(message)
	if err != nil {
		return nil, err
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}

	decryptedData, err := gcm.Open(nil, cipherText[:gcm.NonceSize()], cipherText[gcm.NonceSize():], nil)
	if err != nil {
		return nil, err
	}
	decodedString := string(decryptedData)

	return &decodedString, nil
}
