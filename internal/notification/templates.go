package notification

import (
	"bytes"
	"fmt"
	htmltemplate "html/template"
	"strings"
	texttemplate "text/template"
	"time"

	"github.com/fabworks/orderapi/internal/domain"
)

const dateLayout = "02 Jan 2006"

var templateFuncs = map[string]interface{}{
	"date": func(t *time.Time) string {
		if t == nil {
			return "-"
		}
		return t.Format(dateLayout)
	},
	"ref": OrderReference,
}

const layoutHTML = `{{define "layout"}}<!DOCTYPE html>
<html><body style="font-family:Arial,Helvetica,sans-serif;color:#222">
<h2 style="color:#1f4e79">{{.Company}}</h2>
{{template "content" .}}
<p style="font-size:12px;color:#888">This is an automated message from {{.Company}}.</p>
</body></html>{{end}}`

const itemsTableHTML = `{{define "items"}}<table cellpadding="6" style="border-collapse:collapse;border:1px solid #ccc">
<tr style="background:#f0f0f0"><th align="left">Item code</th><th align="left">Product</th><th align="left">Drawing</th><th align="left">Rev</th><th align="right">Qty</th></tr>
{{range .Order.Items}}<tr><td>{{.ItemCode}}</td><td>{{.ProductName}}</td><td>{{.DrawingCode}}</td><td>{{.Revision}}</td><td align="right">{{.Quantity}}</td></tr>
{{end}}</table>{{end}}`

const orderCreatedHTML = `{{define "content"}}<p>A new order <b>{{ref .Order}}</b> has been placed.</p>
<ul>
<li>Customer: {{.Order.CustomerEmail}}</li>
{{if .Order.BusinessName}}<li>Business: {{.Order.BusinessName}}</li>{{end}}
{{if .Order.OrderPlacerName}}<li>Placed by: {{.Order.OrderPlacerName}}</li>{{end}}
{{if .Order.PhoneNumber}}<li>Phone: {{.Order.PhoneNumber}}</li>{{end}}
<li>Expected delivery: {{date .Order.ExpectedDeliveryDate}}</li>
</ul>
{{template "items" .}}{{end}}`

const statusChangedHTML = `{{define "content"}}<p>Hello{{if .Order.OrderPlacerName}} {{.Order.OrderPlacerName}}{{end}},</p>
{{if eq .Order.Status "Accepted"}}<p>Good news: your order <b>{{ref .Order}}</b> has been <b style="color:#2e7d32">accepted</b> and is scheduled for fabrication. We will keep you posted as it moves through production.</p>
{{else}}<p>We are sorry to let you know that your order <b>{{ref .Order}}</b> has been <b style="color:#c62828">rejected</b>. Please contact us if you would like to discuss it.</p>{{end}}
{{template "items" .}}{{end}}`

const trackingUpdatedHTML = `{{define "content"}}<p>Your order <b>{{ref .Order}}</b> has a tracking update. Current stage: <b>{{.CurrentStage}}</b>.</p>
<table cellpadding="6" style="border-collapse:collapse;border:1px solid #ccc">
<tr style="background:#f0f0f0"><th align="left">Stage</th><th align="left">Planned</th><th align="left">Actual</th></tr>
{{range $i, $s := .Order.Tracking}}<tr{{if eq $i $.Current}} style="background:#fff3cd;font-weight:bold"{{end}}><td>{{$s.Stage}}</td><td>{{date $s.PlannedDate}}</td><td>{{date $s.ActualDate}}</td></tr>
{{end}}</table>
<p>Order status: {{.Order.Status}}</p>{{end}}`

const orderCreatedText = `New order {{ref .Order}}
Customer: {{.Order.CustomerEmail}}{{if .Order.BusinessName}} ({{.Order.BusinessName}}){{end}}
{{range .Order.Items}}- {{.ItemCode}} {{.ProductName}} x{{.Quantity}}
{{end}}Expected delivery: {{date .Order.ExpectedDeliveryDate}}`

// Renderer builds email and chat bodies for order notifications
type Renderer struct {
	company        string
	orderCreated   *htmltemplate.Template
	statusChanged  *htmltemplate.Template
	trackingUpdate *htmltemplate.Template
	createdText    *texttemplate.Template
}

type templateData struct {
	Company      string
	Order        *domain.Order
	Current      int
	CurrentStage string
}

// NewRenderer parses the notification templates
func NewRenderer(company string) (*Renderer, error) {
	build := func(name, content string) (*htmltemplate.Template, error) {
		return htmltemplate.New(name).Funcs(templateFuncs).Parse(layoutHTML + itemsTableHTML + content)
	}

	r := &Renderer{company: company}
	var err error
	if r.orderCreated, err = build("order_created", orderCreatedHTML); err != nil {
		return nil, fmt.Errorf("parse order created template: %w", err)
	}
	if r.statusChanged, err = build("status_changed", statusChangedHTML); err != nil {
		return nil, fmt.Errorf("parse status changed template: %w", err)
	}
	if r.trackingUpdate, err = build("tracking_updated", trackingUpdatedHTML); err != nil {
		return nil, fmt.Errorf("parse tracking template: %w", err)
	}
	if r.createdText, err = texttemplate.New("order_created_text").Funcs(templateFuncs).Parse(orderCreatedText); err != nil {
		return nil, fmt.Errorf("parse order created text template: %w", err)
	}
	return r, nil
}

// OrderReference is the short human-facing order number
func OrderReference(o *domain.Order) string {
	return "#" + strings.ToUpper(o.ID.String()[:8])
}

func (r *Renderer) data(o *domain.Order) templateData {
	d := templateData{Company: r.company, Order: o, Current: domain.CurrentStageIndex(o.Tracking)}
	if d.Current >= 0 {
		d.CurrentStage = o.Tracking[d.Current].Stage
	}
	return d
}

func execHTML(t *htmltemplate.Template, data templateData) (string, error) {
	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "layout", data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// OrderCreated renders the staff alert for a new order
func (r *Renderer) OrderCreated(o *domain.Order) (EmailMessage, error) {
	body, err := execHTML(r.orderCreated, r.data(o))
	if err != nil {
		return EmailMessage{}, err
	}
	return EmailMessage{
		Subject: fmt.Sprintf("New order %s from %s", OrderReference(o), o.CustomerEmail),
		HTML:    body,
	}, nil
}

// StatusChanged renders the customer email for a decision. ok is false for
// statuses that have no customer email.
func (r *Renderer) StatusChanged(o *domain.Order) (msg EmailMessage, ok bool, err error) {
	var subject string
	switch o.Status {
	case domain.OrderStatusAccepted:
		subject = fmt.Sprintf("Your order %s has been accepted", OrderReference(o))
	case domain.OrderStatusRejected:
		subject = fmt.Sprintf("Your order %s has been rejected", OrderReference(o))
	default:
		return EmailMessage{}, false, nil
	}

	body, err := execHTML(r.statusChanged, r.data(o))
	if err != nil {
		return EmailMessage{}, false, err
	}
	return EmailMessage{To: []string{o.CustomerEmail}, Subject: subject, HTML: body}, true, nil
}

// TrackingUpdated renders the customer email with the full stage table
func (r *Renderer) TrackingUpdated(o *domain.Order) (EmailMessage, error) {
	d := r.data(o)
	body, err := execHTML(r.trackingUpdate, d)
	if err != nil {
		return EmailMessage{}, err
	}
	subject := fmt.Sprintf("Tracking update for order %s", OrderReference(o))
	if d.CurrentStage != "" {
		subject += ": " + d.CurrentStage
	}
	return EmailMessage{To: []string{o.CustomerEmail}, Subject: subject, HTML: body}, nil
}

// OrderCreatedText renders the short chat summary for a new order
func (r *Renderer) OrderCreatedText(o *domain.Order) (string, error) {
	var buf bytes.Buffer
	if err := r.createdText.Execute(&buf, r.data(o)); err != nil {
		return "", err
	}
	return buf.String(), nil
}
