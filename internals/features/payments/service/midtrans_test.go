package service

import (
	"crypto/sha512"
	"encoding/hex"
	"encoding/json"
	"testing"
)

func TestMidtransVerifySignature(t *testing.T) {
	g := &MidtransGateway{serverKey: "SB-Mid-server-testkey"}

	orderID := "payment_3f1c"
	statusCode := "200"
	grossAmount := "150000.00"

	h := sha512.Sum512([]byte(orderID + statusCode + grossAmount + g.serverKey))
	valid := hex.EncodeToString(h[:])

	cases := []struct {
		name      string
		signature string
		want      bool
	}{
		{"valid", valid, true},
		{"whitespace padded is normalized", "  " + valid + " ", true},
		{"tampered", "0" + valid[1:], false},
		{"empty", "", false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := g.VerifySignature(orderID, statusCode, grossAmount, tc.signature); got != tc.want {
				t.Errorf("VerifySignature = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestMidtransVerifyWebhookSignature(t *testing.T) {
	g := &MidtransGateway{serverKey: "SB-Mid-server-testkey"}

	notif := MidtransNotification{
		TransactionStatus: "settlement",
		StatusCode:        "200",
		OrderID:           "payment_3f1c",
		GrossAmount:       "150000.00",
	}
	h := sha512.Sum512([]byte(notif.OrderID + notif.StatusCode + notif.GrossAmount + g.serverKey))
	sig := hex.EncodeToString(h[:])

	t.Run("signature in body", func(t *testing.T) {
		n := notif
		n.SignatureKey = sig
		raw, _ := json.Marshal(n)
		if !g.VerifyWebhookSignature(raw, "") {
			t.Error("expected valid signature from body")
		}
	})

	t.Run("signature from header fallback", func(t *testing.T) {
		raw, _ := json.Marshal(notif) // tanpa signature_key
		if !g.VerifyWebhookSignature(raw, sig) {
			t.Error("expected valid signature from header")
		}
	})

	t.Run("wrong signature", func(t *testing.T) {
		n := notif
		n.SignatureKey = "deadbeef"
		raw, _ := json.Marshal(n)
		if g.VerifyWebhookSignature(raw, "") {
			t.Error("expected rejection")
		}
	})

	t.Run("malformed body", func(t *testing.T) {
		if g.VerifyWebhookSignature([]byte("{not json"), sig) {
			t.Error("expected rejection for malformed body")
		}
	})
}
