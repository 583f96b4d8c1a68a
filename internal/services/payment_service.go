package services

import (
	"context"
	"fmt"

	razorpay "github.com/razorpay/razorpay-go"
	"github.com/shopspring/decimal"
)

// Refunder returns money for a captured payment. amount is in major units.
type Refunder interface {
	Refund(ctx context.Context, paymentID string, amount decimal.Decimal, notes map[string]string) (string, error)
}

// RazorpayRefunder issues refunds through the Razorpay payments API.
type RazorpayRefunder struct {
	client *razorpay.Client
}

func NewRazorpayRefunder(keyID, keySecret string) *RazorpayRefunder {
	return &RazorpayRefunder{client: razorpay.NewClient(keyID, keySecret)}
}

// ToPaise converts a rupee amount into the integer minor units Razorpay expects.
func ToPaise(amount decimal.Decimal) int {
	return int(amount.Mul(decimal.NewFromInt(100)).Round(0).IntPart())
}

func (r *RazorpayRefunder) Refund(ctx context.Context, paymentID string, amount decimal.Decimal, notes map[string]string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	payment, err := r.client.Payment.Fetch(paymentID, nil, nil)
	if err != nil {
		return "", fmt.Errorf("fetch payment %s: %w", paymentID, err)
	}
	if status, _ := payment["status"].(string); status != "captured" {
		return "", fmt.Errorf("payment %s is %q, only captured payments can be refunded", paymentID, status)
	}

	data := map[string]interface{}{}
	if len(notes) > 0 {
		n := map[string]interface{}{}
		for k, v := range notes {
			n[k] = v
		}
		data["notes"] = n
	}

	resp, err := r.client.Payment.Refund(paymentID, ToPaise(amount), data, nil)
	if err != nil {
		return "", fmt.Errorf("refund payment %s: %w", paymentID, err)
	}
	id, _ := resp["id"].(string)
	return id, nil
}
