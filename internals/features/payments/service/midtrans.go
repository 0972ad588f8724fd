package service

import (
	"crypto/sha512"
	"encoding/hex"
	"encoding/json"
	"strings"

	midtrans "github.com/midtrans/midtrans-go"
	"github.com/midtrans/midtrans-go/snap"
)

/* =========================================================
   Gateway adapter
   Kontrak yang dikonsumsi lifecycle manager. Konversi satuan
   mayor → minor (×100) terjadi di boundary ini, bukan di core.
========================================================= */

type GatewayOrder struct {
	OrderID     string `json:"order_id"`
	AmountMinor int64  `json:"amount_minor"`
	Currency    string `json:"currency"`
	Token       string `json:"token,omitempty"`
	RedirectURL string `json:"redirect_url,omitempty"`
}

type PaymentGateway interface {
	CreateOrder(amountMinor int64, currency, receiptRef, customerName string) (*GatewayOrder, error)
	// VerifySignature: SHA512(order_id + status_code + gross_amount + server_key)
	VerifySignature(orderID, statusCode, grossAmount, signature string) bool
	VerifyWebhookSignature(rawBody []byte, signatureHeader string) bool
}

/* =========================================================
   Midtrans (Snap)
========================================================= */

type MidtransGateway struct {
	snapClient snap.Client
	serverKey  string
}

// InitMidtrans membuat gateway Midtrans.
// useProduction=true untuk Production, false untuk Sandbox.
func InitMidtrans(serverKey string, useProduction bool) *MidtransGateway {
	g := &MidtransGateway{serverKey: serverKey}
	if useProduction {
		g.snapClient.New(serverKey, midtrans.Production)
	} else {
		g.snapClient.New(serverKey, midtrans.Sandbox)
	}
	return g
}

func (g *MidtransGateway) CreateOrder(amountMinor int64, currency, receiptRef, customerName string) (*GatewayOrder, error) {
	// Snap pakai gross amount satuan mayor IDR
	gross := amountMinor / 100

	req := &snap.Request{
		TransactionDetails: midtrans.TransactionDetails{
			OrderID:  receiptRef,
			GrossAmt: gross,
		},
		CustomerDetail: &midtrans.CustomerDetails{
			FName: customerName,
		},
		Items: &[]midtrans.ItemDetails{
			{
				ID:       receiptRef,
				Price:    gross,
				Qty:      1,
				Name:     "SPP Payment",
				Category: "SPP",
			},
		},
	}

	resp, err := g.snapClient.CreateTransaction(req)
	if err != nil {
		return nil, err
	}

	return &GatewayOrder{
		OrderID:     receiptRef,
		AmountMinor: amountMinor,
		Currency:    currency,
		Token:       resp.Token,
		RedirectURL: resp.RedirectURL,
	}, nil
}

func (g *MidtransGateway) VerifySignature(orderID, statusCode, grossAmount, signature string) bool {
	want := strings.ToLower(strings.TrimSpace(signature))
	if want == "" {
		return false
	}
	raw := orderID + statusCode + grossAmount + g.serverKey
	return sha512sum(raw) == want
}

func (g *MidtransGateway) VerifyWebhookSignature(rawBody []byte, signatureHeader string) bool {
	var notif MidtransNotification
	if err := json.Unmarshal(rawBody, &notif); err != nil {
		return false
	}
	sig := notif.SignatureKey
	if sig == "" {
		sig = signatureHeader
	}
	return g.VerifySignature(notif.OrderID, notif.StatusCode, notif.GrossAmount, sig)
}

func sha512sum(s string) string {
	h := sha512.Sum512([]byte(s))
	return hex.EncodeToString(h[:])
}

/* =========================================================
   Payload notifikasi Midtrans
========================================================= */

type MidtransNotification struct {
	TransactionTime   string `json:"transaction_time"`
	TransactionStatus string `json:"transaction_status"` // capture, settlement, pending, deny, cancel, expire, refund, failure
	StatusCode        string `json:"status_code"`
	SignatureKey      string `json:"signature_key"`
	OrderID           string `json:"order_id"`
	GrossAmount       string `json:"gross_amount"` // string dari Midtrans
	PaymentType       string `json:"payment_type"`
	FraudStatus       string `json:"fraud_status"` // accept / challenge / deny
	TransactionID     string `json:"transaction_id"`
	SettlementTime    string `json:"settlement_time"`
	// field lain aman diabaikan
}
