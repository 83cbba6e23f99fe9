package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/resend/resend-go/v2"

	"fixly/internal/models"
	"fixly/internal/store"
)

// Notifier is the event publisher the state machines emit into. Delivery
// is best-effort: a failed notification never rolls back the transition
// that produced it.
type Notifier interface {
	QuoteReceived(ctx context.Context, clientID uint, job *models.Job, quote *models.Quote)
	QuoteAccepted(ctx context.Context, providerID uint, job *models.Job, quote *models.Quote)
	QuoteDeclined(ctx context.Context, providerID uint, job *models.Job)
	JobCancelled(ctx context.Context, providerID uint, job *models.Job, reason string)
	PaymentSucceeded(ctx context.Context, userID uint, tx *models.Transaction)
	PaymentFailed(ctx context.Context, userID uint, tx *models.Transaction)
	PaymentReleased(ctx context.Context, providerID uint, tx *models.Transaction)
	RefundProcessed(ctx context.Context, userID uint, tx *models.Transaction)
	WithdrawalCompleted(ctx context.Context, providerID uint, tx *models.Transaction)
	WithdrawalFailed(ctx context.Context, providerID uint, tx *models.Transaction)
}

// NotificationService persists in-app notification rows and optionally
// mails the user through Resend.
type NotificationService struct {
	store  store.Store
	mailer *resend.Client
	from   string
}

func NewNotificationService(s store.Store, resendAPIKey, fromEmail string) *NotificationService {
	ns := &NotificationService{store: s, from: fromEmail}
	if resendAPIKey != "" {
		ns.mailer = resend.NewClient(resendAPIKey)
	}
	return ns
}

func (s *NotificationService) notify(ctx context.Context, userID uint, notifType models.NotificationType, title, message string, data map[string]interface{}) {
	var dataJSON string
	if data != nil {
		if jsonBytes, err := json.Marshal(data); err == nil {
			dataJSON = string(jsonBytes)
		}
	}

	n := &models.Notification{
		UserID:  userID,
		Type:    notifType,
		Title:   title,
		Message: message,
		Data:    dataJSON,
	}
	if err := s.store.CreateNotification(ctx, n); err != nil {
		log.Printf("failed to store notification for user %d: %v", userID, err)
	}

	if s.mailer != nil {
		go s.sendEmail(userID, title, message)
	}
}

func (s *NotificationService) sendEmail(userID uint, subject, message string) {
	user, err := s.store.GetUser(context.Background(), userID)
	if err != nil {
		return
	}
	_, err = s.mailer.Emails.Send(&resend.SendEmailRequest{
		From:    s.from,
		To:      []string{user.Email},
		Subject: subject,
		Text:    message,
	})
	if err != nil {
		log.Printf("failed to email user %d: %v", userID, err)
	}
}

func (s *NotificationService) QuoteReceived(ctx context.Context, clientID uint, job *models.Job, quote *models.Quote) {
	s.notify(ctx, clientID, models.NotificationQuoteReceived,
		"New Quote Received",
		fmt.Sprintf("A provider quoted ₦%.2f on your job #%d", quote.Price, job.ID),
		map[string]interface{}{"job_id": job.ID, "quote_id": quote.ID, "price": quote.Price})
}

func (s *NotificationService) QuoteAccepted(ctx context.Context, providerID uint, job *models.Job, quote *models.Quote) {
	s.notify(ctx, providerID, models.NotificationQuoteAccepted,
		"Quote Accepted",
		fmt.Sprintf("Your quote of ₦%.2f on job #%d was accepted", quote.Price, job.ID),
		map[string]interface{}{"job_id": job.ID, "quote_id": quote.ID})
}

func (s *NotificationService) QuoteDeclined(ctx context.Context, providerID uint, job *models.Job) {
	s.notify(ctx, providerID, models.NotificationQuoteDeclined,
		"Quote Declined",
		fmt.Sprintf("Your quote on job #%d was declined", job.ID),
		map[string]interface{}{"job_id": job.ID})
}

func (s *NotificationService) JobCancelled(ctx context.Context, providerID uint, job *models.Job, reason string) {
	s.notify(ctx, providerID, models.NotificationJobCancelled,
		"Job Cancelled",
		fmt.Sprintf("Job #%d was cancelled by the client. Reason: %s", job.ID, reason),
		map[string]interface{}{"job_id": job.ID, "reason": reason})
}

func (s *NotificationService) PaymentSucceeded(ctx context.Context, userID uint, tx *models.Transaction) {
	s.notify(ctx, userID, models.NotificationPaymentSuccess,
		"Payment Successful",
		fmt.Sprintf("Payment of ₦%.2f (ref %s) completed", tx.Amount, tx.Reference),
		map[string]interface{}{"transaction_id": tx.ID, "reference": tx.Reference})
}

func (s *NotificationService) PaymentFailed(ctx context.Context, userID uint, tx *models.Transaction) {
	s.notify(ctx, userID, models.NotificationPaymentFailed,
		"Payment Failed",
		fmt.Sprintf("Payment of ₦%.2f (ref %s) failed. You can try again.", tx.Amount, tx.Reference),
		map[string]interface{}{"transaction_id": tx.ID, "reference": tx.Reference})
}

func (s *NotificationService) PaymentReleased(ctx context.Context, providerID uint, tx *models.Transaction) {
	s.notify(ctx, providerID, models.NotificationPaymentReleased,
		"Funds Released",
		fmt.Sprintf("₦%.2f from job payment %s is now available", tx.ProviderAmount, tx.Reference),
		map[string]interface{}{"transaction_id": tx.ID, "amount": tx.ProviderAmount})
}

func (s *NotificationService) RefundProcessed(ctx context.Context, userID uint, tx *models.Transaction) {
	s.notify(ctx, userID, models.NotificationRefundProcessed,
		"Refund Processed",
		fmt.Sprintf("A refund was processed for payment %s", tx.Reference),
		map[string]interface{}{"transaction_id": tx.ID, "reference": tx.Reference})
}

func (s *NotificationService) WithdrawalCompleted(ctx context.Context, providerID uint, tx *models.Transaction) {
	s.notify(ctx, providerID, models.NotificationWithdrawalDone,
		"Withdrawal Completed",
		fmt.Sprintf("Your withdrawal of ₦%.2f was paid out", tx.Amount),
		map[string]interface{}{"transaction_id": tx.ID, "amount": tx.Amount})
}

func (s *NotificationService) WithdrawalFailed(ctx context.Context, providerID uint, tx *models.Transaction) {
	s.notify(ctx, providerID, models.NotificationWithdrawalFailed,
		"Withdrawal Failed",
		fmt.Sprintf("Your withdrawal of ₦%.2f failed and was returned to your balance", tx.Amount),
		map[string]interface{}{"transaction_id": tx.ID, "amount": tx.Amount})
}
