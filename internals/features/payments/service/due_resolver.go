package service

import (
	"time"

	"sppku_backend/internals/features/payments/model"
)

/* =========================================================
   Due-Date Resolver
   Aturan SPP: jatuh tempo tanggal 10 tiap bulan (00:00 UTC).
   Bulan berjalan belum lunas → itu kewajibannya (due/overdue).
   Bulan berjalan lunas → cek SATU bulan ke depan saja:
   lunas juga → tidak ada tagihan (nil).
========================================================= */

// DueDayOfMonth: tanggal jatuh tempo tiap periode
const DueDayOfMonth = 10

const (
	DueStatusUpcoming = "upcoming"
	DueStatusDue      = "due"
	DueStatusOverdue  = "overdue"
)

// Period: satu siklus tagihan (bulan 1..12 + tahun)
type Period struct {
	Month int `json:"month"`
	Year  int `json:"year"`
}

func CurrentPeriod(now time.Time) Period {
	now = now.UTC()
	return Period{Month: int(now.Month()), Year: now.Year()}
}

// Next: periode berikutnya; Desember → Januari tahun depan
func (p Period) Next() Period {
	if p.Month == 12 {
		return Period{Month: 1, Year: p.Year + 1}
	}
	return Period{Month: p.Month + 1, Year: p.Year}
}

// DueDate: tanggal 10, 00:00 UTC, di bulan periode tsb
func (p Period) DueDate() time.Time {
	return time.Date(p.Year, time.Month(p.Month), DueDayOfMonth, 0, 0, 0, 0, time.UTC)
}

// Obligation: deskripsi kewajiban pembayaran berikutnya
type Obligation struct {
	Month     int       `json:"month"`
	Year      int       `json:"year"`
	DueDate   time.Time `json:"due_date"`
	Status    string    `json:"status"` // upcoming | due | overdue
	AmountIDR int       `json:"amount_idr"`
}

// isSettled: periode dianggap lunas HANYA oleh record completed;
// pending/failed tidak menghitung.
func isSettled(p Period, records []model.Payment) bool {
	for i := range records {
		if records[i].MatchesPeriod(p.Month, p.Year) && records[i].IsCompleted() {
			return true
		}
	}
	return false
}

// ResolveNextDue: fungsi murni (now, fee, riwayat satu siswa) → kewajiban
// berikutnya, atau nil kalau bulan ini & bulan depan sudah lunas.
// Tidak pernah melihat lebih dari satu periode ke depan, dan tidak
// menagih mundur periode lama yang terlewat.
func ResolveNextDue(now time.Time, feeIDR int, records []model.Payment) *Obligation {
	now = now.UTC()

	current := CurrentPeriod(now)
	if !isSettled(current, records) {
		status := DueStatusDue
		if now.After(current.DueDate()) {
			status = DueStatusOverdue
		}
		return &Obligation{
			Month:     current.Month,
			Year:      current.Year,
			DueDate:   current.DueDate(),
			Status:    status,
			AmountIDR: feeIDR,
		}
	}

	next := current.Next()
	if isSettled(next, records) {
		return nil
	}

	status := DueStatusUpcoming
	if now.After(next.DueDate()) {
		status = DueStatusDue
	}
	return &Obligation{
		Month:     next.Month,
		Year:      next.Year,
		DueDate:   next.DueDate(),
		Status:    status,
		AmountIDR: feeIDR,
	}
}
