package notify

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"time"

	"github.com/iliyamo/escape-room-booking/internal/model"
)

//go:embed templates/*.html
var templateFS embed.FS

const (
	tmplCustomerCreated  = "customer_created"
	tmplStaffCreated     = "staff_created"
	tmplCustomerApproved = "customer_approved"
	tmplCustomerDeclined = "customer_declined"
)

// slotLayout is how slot times appear in emails and notification text.
const slotLayout = "02/01/2006 15:04"

type view struct {
	Title        string
	Color        template.CSS
	Venue        string
	Year         int
	Event        model.ReservationEvent
	Start        string
	End          string
	DashboardURL string
	WasApproved  bool
}

type renderer struct {
	sets map[string]*template.Template
}

func newRenderer() (*renderer, error) {
	r := &renderer{sets: make(map[string]*template.Template)}
	for _, name := range []string{tmplCustomerCreated, tmplStaffCreated, tmplCustomerApproved, tmplCustomerDeclined} {
		t, err := template.ParseFS(templateFS, "templates/layout.html", "templates/"+name+".html")
		if err != nil {
			return nil, fmt.Errorf("parse template %s: %w", name, err)
		}
		r.sets[name] = t
	}
	return r, nil
}

func (r *renderer) render(name string, v view) (string, error) {
	t, ok := r.sets[name]
	if !ok {
		return "", fmt.Errorf("unknown template %s", name)
	}
	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "layout", v); err != nil {
		return "", fmt.Errorf("render %s: %w", name, err)
	}
	return buf.String(), nil
}

// formatSlot renders t in the venue timezone.
func formatSlot(t time.Time, loc *time.Location) string {
	return t.In(loc).Format(slotLayout)
}
