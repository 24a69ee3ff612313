package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/TegaJeremy/Take-Am-Platform/internal/models"
)

// Notifier formats and sends trader-facing SMS messages. Delivery is
// best-effort: a failed send is logged and dropped, never returned, so no
// lifecycle transition depends on the SMS provider being up.
type Notifier struct {
	Sender SMSSender
	Logger *zap.Logger
}

func (n *Notifier) GradingSubmitted(ctx context.Context, g *models.Grading) {
	if g == nil {
		return
	}
	msg := "TakeAm: Your goods have been graded!\nTotal: ₦" + g.TotalAmount.StringFixed(2)
	if g.GradeAWeight.Sign() > 0 {
		msg += "\nGrade A (Fresh): " + g.GradeAWeight.String() + "kg - ₦" + g.GradeAAmount.StringFixed(2)
	}
	if g.GradeBWeight.Sign() > 0 {
		msg += "\nGrade B (Soft): " + g.GradeBWeight.String() + "kg - ₦" + g.GradeBAmount.StringFixed(2)
	}
	if g.GradeCWeight.Sign() > 0 {
		msg += "\nGrade C (Feed): " + g.GradeCWeight.String() + "kg - ₦" + g.GradeCAmount.StringFixed(2)
	}
	if g.GradeDWeight.Sign() > 0 {
		msg += "\nGrade D (Unripe): " + g.GradeDWeight.String() + "kg - Deferred"
	}
	msg += "\n\nPayment within 3 days. Thank you!"
	n.send(ctx, g.TraderPhone, msg)
}

func (n *Notifier) RequestClosed(ctx context.Context, traderPhone string, g *models.Grading) {
	if g == nil {
		return
	}
	msg := "TakeAm: Your goods have been inspected. Total weight: " + g.TotalWeight.String() +
		"kg. Amount to receive: ₦" + g.TotalAmount.StringFixed(2) + ". Thank you!"
	n.send(ctx, traderPhone, msg)
}

func (n *Notifier) PaymentConfirmed(ctx context.Context, g *models.Grading) {
	if g == nil {
		return
	}
	account := "on file"
	if g.TraderBankAccount != nil && *g.TraderBankAccount != "" {
		account = *g.TraderBankAccount
	}
	bank := "your bank"
	if g.TraderBankName != nil && *g.TraderBankName != "" {
		bank = *g.TraderBankName
	}
	msg := "TakeAm: Payment of ₦" + g.TotalAmount.StringFixed(2) +
		" has been sent to your account " + account + " (" + bank + "). Thank you for using TakeAm!"
	n.send(ctx, g.TraderPhone, msg)
}

func (n *Notifier) send(ctx context.Context, to, message string) {
	if n == nil || n.Sender == nil || to == "" {
		return
	}
	// Detach from the request context so a slow provider cannot hold the
	// caller, but still bound the attempt.
	sendCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()
	if err := n.Sender.Send(sendCtx, to, message); err != nil && n.Logger != nil {
		n.Logger.Warn("sms delivery failed",
			zap.String("to", to),
			zap.Error(err),
		)
	}
}
