package service

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/go-pdf/fpdf"

	"github.com/eventops/eventops/internal/model"
	"github.com/eventops/eventops/internal/repository"
)

// TicketService renders PDF tickets for confirmed reservations.
type TicketService struct {
	store repository.Store
}

// NewTicketService constructs a TicketService.
func NewTicketService(store repository.Store) *TicketService {
	return &TicketService{store: store}
}

// Render produces the ticket PDF for a reservation. The caller must own the
// reservation and it must be CONFIRMED; anything else is rejected before any
// rendering happens.
func (s *TicketService) Render(ctx context.Context, reservationID, userID string) ([]byte, error) {
	r, err := s.store.GetReservationByID(ctx, reservationID)
	if err != nil {
		return nil, err
	}
	if r.UserID != userID {
		return nil, model.ErrForbidden
	}
	if r.Status != model.ReservationConfirmed {
		return nil, model.ErrTicketUnavailable
	}

	ev, err := s.store.GetEventByID(ctx, r.EventID)
	if err != nil {
		return nil, err
	}

	attendee := "Guest"
	if u, err := s.store.GetUserByID(ctx, r.UserID); err == nil {
		attendee = u.Email
	}

	return renderTicket(r, ev, attendee)
}

// renderTicket draws a 600x320pt dark landscape ticket: title block, dashed
// separator, then a two-row info grid.
func renderTicket(r *model.Reservation, ev *model.Event, attendee string) ([]byte, error) {
	pdf := fpdf.NewCustom(&fpdf.InitType{
		UnitStr: "pt",
		Size:    fpdf.SizeType{Wd: 600, Ht: 320},
	})
	pdf.SetMargins(0, 0, 0)
	pdf.SetAutoPageBreak(false, 0)
	pdf.AddPage()

	// Background and left accent bar.
	pdf.SetFillColor(10, 10, 10)
	pdf.Rect(0, 0, 600, 320, "F")
	pdf.SetFillColor(255, 255, 255)
	pdf.Rect(0, 0, 6, 320, "F")

	// Header labels.
	pdf.SetFont("Helvetica", "B", 9)
	pdf.SetTextColor(102, 102, 102)
	pdf.Text(30, 28, "E V E N T  T I C K E T")
	pdf.SetFont("Helvetica", "", 8)
	pdf.SetTextColor(85, 85, 85)
	ticketNo := fmt.Sprintf("#%s", strings.ToUpper(shortID(r.ID)))
	pdf.Text(570-pdf.GetStringWidth(ticketNo), 28, ticketNo)

	// Event title.
	pdf.SetFont("Helvetica", "B", 28)
	pdf.SetTextColor(255, 255, 255)
	pdf.Text(30, 96, strings.ToUpper(ev.Title))

	// Dashed separator.
	pdf.SetDrawColor(51, 51, 51)
	pdf.SetLineWidth(1)
	for x := 30.0; x < 570; x += 8 {
		pdf.Line(x, 130, x+4, 130)
	}

	// Info grid.
	const col1, col2, col3 = 30.0, 200.0, 380.0
	infoCell(pdf, col1, 160, "DATE", ev.DateTime.Format("Mon Jan 2, 2006"))
	infoCell(pdf, col2, 160, "TIME", ev.DateTime.Format("3:04 PM"))
	infoCell(pdf, col3, 160, "VENUE", ev.Location)
	infoCell(pdf, col1, 220, "ATTENDEE", attendee)
	pdf.SetFont("Helvetica", "", 8)
	pdf.SetTextColor(102, 102, 102)
	pdf.Text(col2, 220, "STATUS")
	pdf.SetFont("Helvetica", "B", 13)
	pdf.SetTextColor(34, 197, 94)
	pdf.Text(col2, 240, "CONFIRMED")
	infoCell(pdf, col3, 220, "CAPACITY", fmt.Sprintf("%d seats", ev.Capacity))

	// Footer.
	pdf.SetFillColor(17, 17, 17)
	pdf.Rect(0, 282, 600, 38, "F")
	pdf.SetFont("Helvetica", "", 7)
	pdf.SetTextColor(85, 85, 85)
	pdf.Text(30, 300, "This ticket is valid for one person only. Please present it at the venue entrance.")
	pdf.SetFont("Helvetica", "B", 10)
	pdf.SetTextColor(68, 68, 68)
	pdf.Text(570-pdf.GetStringWidth("EventOps"), 302, "EventOps")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render ticket pdf: %w", err)
	}
	return buf.Bytes(), nil
}

// infoCell draws a small grey label with a bold white value under it.
func infoCell(pdf *fpdf.Fpdf, x, y float64, label, value string) {
	pdf.SetFont("Helvetica", "", 8)
	pdf.SetTextColor(102, 102, 102)
	pdf.Text(x, y, label)
	pdf.SetFont("Helvetica", "B", 13)
	pdf.SetTextColor(255, 255, 255)
	pdf.Text(x, y+20, value)
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
