package service

import "errors"

/* =========================================================
   Error domain pembayaran — dipetakan ke HTTP di controller.
   Kegagalan kolaborator (store/gateway) selalu dibungkus %w,
   tidak pernah bocor sebagai fault mentah ke caller.
========================================================= */

var (
	ErrStudentNotFound  = errors.New("student not found")
	ErrPaymentNotFound  = errors.New("payment not found")
	ErrNothingDue       = errors.New("no payment currently due")
	ErrConflict         = errors.New("invalid payment state transition")
	ErrInvalidSignature = errors.New("invalid gateway signature")
	ErrGatewayDown      = errors.New("payment gateway unavailable")
	ErrStoreDown        = errors.New("payment store unavailable")
)
