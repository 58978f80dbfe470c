package billing

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"taskflow-backend/internal/domain"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type WebhookHandler struct {
	DB            *gorm.DB
	WebhookSecret string
}

type providerEvent struct {
	ID   string `json:"id"`
	Type string `json:"type"`
	Data struct {
		Object json.RawMessage `json:"object"`
	} `json:"data"`
}

type paymentIntentObject struct {
	ID             string            `json:"id"`
	AmountReceived int64             `json:"amount_received"`
	Currency       string            `json:"currency"`
	Status         string            `json:"status"`
	Metadata       map[string]string `json:"metadata"`
}

type subscriptionObject struct {
	ID       string            `json:"id"`
	Status   string            `json:"status"`
	Metadata map[string]string `json:"metadata"`
}

// HandleWebhook POST /api/v1/billing/webhook — raw body, signature verification, then process.
func (wh *WebhookHandler) HandleWebhook(c *fiber.Ctx) error {
	rawBody := c.BodyRaw()
	sig := c.Get("Stripe-Signature")

	if len(rawBody) == 0 {
		log.Warn().Msg("billing webhook received empty body (ensure no global body parser consumes the webhook body)")
		return c.Status(400).SendString("Webhook Error: empty body")
	}

	if err := verifySignature(rawBody, sig, wh.WebhookSecret); err != nil {
		log.Warn().Err(err).Bool("has_sig", sig != "").Bool("has_secret", wh.WebhookSecret != "").Msg("billing webhook signature verification failed")
		return c.Status(400).SendString(fmt.Sprintf("Webhook Error: %s", err.Error()))
	}

	var event providerEvent
	if err := json.Unmarshal(rawBody, &event); err != nil {
		log.Warn().Err(err).Msg("billing webhook JSON parse failed")
		return c.Status(400).SendString(fmt.Sprintf("Webhook Error: %s", err.Error()))
	}

	switch event.Type {
	case "payment_intent.succeeded":
		var pi paymentIntentObject
		if err := json.Unmarshal(event.Data.Object, &pi); err != nil {
			return c.Status(200).SendString("ok")
		}
		if err := wh.handlePaymentSucceeded(event, pi, rawBody); err != nil {
			// Domain errors still get a 200 so the provider does not retry.
			log.Warn().Err(err).Str("event_id", event.ID).Msg("billing webhook processing failed")
		}
	case "subscription.updated":
		var sub subscriptionObject
		if err := json.Unmarshal(event.Data.Object, &sub); err != nil {
			return c.Status(200).SendString("ok")
		}
		if err := wh.handleSubscriptionUpdated(event, sub, rawBody); err != nil {
			log.Warn().Err(err).Str("event_id", event.ID).Msg("billing webhook processing failed")
		}
	}

	return c.Status(200).SendString("ok")
}

func (wh *WebhookHandler) handlePaymentSucceeded(event providerEvent, pi paymentIntentObject, rawBody []byte) error {
	userIDStr := pi.Metadata["user_id"]
	planID := pi.Metadata["plan"]
	if userIDStr == "" || planID == "" {
		return nil
	}
	userID, err := uuid.Parse(userIDStr)
	if err != nil {
		return nil
	}
	if PlanByID(planID) == nil {
		return nil
	}

	return wh.DB.Transaction(func(tx *gorm.DB) error {
		// Idempotency: the event id is the primary key, so a redelivered
		// event is a no-op.
		var existing domain.BillingEvent
		if err := tx.Where("event_id = ?", event.ID).First(&existing).Error; err == nil {
			return nil
		}
		if err := tx.Create(&domain.BillingEvent{
			EventID: event.ID,
			Kind:    event.Type,
			Payload: datatypes.JSON(rawBody),
		}).Error; err != nil {
			return err
		}

		if err := tx.Model(&domain.User{}).
			Where("user_id = ?", userID).
			Update("plan_tier", planID).Error; err != nil {
			return err
		}
		// A user who paid before finishing plan selection still moves forward;
		// the step guard keeps later states untouched.
		return tx.Model(&domain.User{}).
			Where("user_id = ? AND onboarding_step = ?", userID, domain.StepPlan).
			Update("onboarding_step", domain.StepOrganization).Error
	})
}

// handleSubscriptionUpdated moves a user to the plan carried in the
// subscription metadata. Unlike a first payment it does not touch onboarding:
// plan changes happen on accounts that are already set up.
func (wh *WebhookHandler) handleSubscriptionUpdated(event providerEvent, sub subscriptionObject, rawBody []byte) error {
	userIDStr := sub.Metadata["user_id"]
	planID := sub.Metadata["plan"]
	if userIDStr == "" || planID == "" {
		return nil
	}
	userID, err := uuid.Parse(userIDStr)
	if err != nil {
		return nil
	}
	if PlanByID(planID) == nil {
		return nil
	}

	return wh.DB.Transaction(func(tx *gorm.DB) error {
		var existing domain.BillingEvent
		if err := tx.Where("event_id = ?", event.ID).First(&existing).Error; err == nil {
			return nil
		}
		if err := tx.Create(&domain.BillingEvent{
			EventID: event.ID,
			Kind:    event.Type,
			Payload: datatypes.JSON(rawBody),
		}).Error; err != nil {
			return err
		}

		return tx.Model(&domain.User{}).
			Where("user_id = ?", userID).
			Update("plan_tier", planID).Error
	})
}

// verifySignature verifies the signature header using the webhook secret.
// The header format is "t=<unix>,v1=<hex hmac-sha256 of t.payload>".
func verifySignature(payload []byte, sigHeader, secret string) error {
	if sigHeader == "" || secret == "" {
		return errors.New("missing signature or secret")
	}

	var timestamp string
	var signatures []string

	parts := strings.Split(sigHeader, ",")
	for _, part := range parts {
		kv := strings.SplitN(strings.TrimSpace(part), "=", 2)
		if len(kv) != 2 {
			continue
		}
		switch kv[0] {
		case "t":
			timestamp = kv[1]
		case "v1":
			signatures = append(signatures, kv[1])
		}
	}

	if timestamp == "" || len(signatures) == 0 {
		return errors.New("invalid signature format")
	}

	signedPayload := timestamp + "." + string(payload)
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(signedPayload))
	expectedSig := hex.EncodeToString(mac.Sum(nil))

	for _, sig := range signatures {
		if hmac.Equal([]byte(sig), []byte(expectedSig)) {
			// 5 minute tolerance
			ts, err := strconv.ParseInt(timestamp, 10, 64)
			if err != nil {
				return errors.New("invalid timestamp")
			}
			diff := time.Now().Unix() - ts
			if diff < 0 {
				diff = -diff
			}
			if diff > 300 {
				return errors.New("timestamp too old")
			}
			return nil
		}
	}

	return errors.New("signature mismatch")
}
