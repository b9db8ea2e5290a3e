package services

import (
	"bytes"
	"context"
	"embed"
	"errors"
	"fmt"
	htmltemplate "html/template"
	"strings"
	texttemplate "text/template"

	"github.com/na4oman/samsung-shop/models"
	"github.com/na4oman/samsung-shop/sender"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// DefaultAdminEmail receives order notifications when ADMIN_EMAIL is unset.
const DefaultAdminEmail = "admin@samsungdisplayshop.com"

//go:embed templates/*
var emailTemplates embed.FS

var templateFuncs = map[string]any{
	"money":     formatMoney,
	"lineTotal": lineTotal,
	"created":   func(o models.Order) string { return o.CreatedAt.UTC().Format("Jan 2, 2006 3:04 PM MST") },
}

func formatMoney(v float64) string {
	return decimal.NewFromFloat(v).StringFixed(2)
}

func lineTotal(item models.OrderItem) string {
	return decimal.NewFromFloat(item.Price).Mul(decimal.NewFromInt(int64(item.Quantity))).StringFixed(2)
}

// AdminOrderSubject is the subject line of the admin notification.
func AdminOrderSubject(o models.Order) string {
	return fmt.Sprintf("New Order #%s - $%s - Samsung Display Shop", o.ID, formatMoney(o.Total))
}

// CustomerOrderSubject is the subject line of the customer confirmation.
func CustomerOrderSubject(o models.Order) string {
	return fmt.Sprintf("Order Confirmation #%s - Samsung Display Shop", o.ID)
}

// OrderNotifier emails the shop admin and the customer when an order is placed.
type OrderNotifier struct {
	sender     sender.EmailSender
	adminEmail string
	adminText  *texttemplate.Template
	adminHTML  *htmltemplate.Template
	customer   *htmltemplate.Template
	logger     *zap.Logger
}

func NewOrderNotifier(s sender.EmailSender, adminEmail string, logger *zap.Logger) (*OrderNotifier, error) {
	if adminEmail == "" {
		adminEmail = DefaultAdminEmail
	}
	adminText, err := texttemplate.New("admin_order.txt").Funcs(templateFuncs).ParseFS(emailTemplates, "templates/admin_order.txt")
	if err != nil {
		return nil, fmt.Errorf("failed to parse admin text template: %w", err)
	}
	adminHTML, err := htmltemplate.New("admin_order.html").Funcs(templateFuncs).ParseFS(emailTemplates, "templates/admin_order.html", "templates/partials.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse admin html template: %w", err)
	}
	customer, err := htmltemplate.New("customer_order.html").Funcs(templateFuncs).ParseFS(emailTemplates, "templates/customer_order.html", "templates/partials.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse customer template: %w", err)
	}
	return &OrderNotifier{
		sender:     s,
		adminEmail: adminEmail,
		adminText:  adminText,
		adminHTML:  adminHTML,
		customer:   customer,
		logger:     logger,
	}, nil
}

type orderEmailData struct {
	Order models.Order
	User  models.User
}

func render(exec func(*bytes.Buffer) error) (string, error) {
	var buf bytes.Buffer
	if err := exec(&buf); err != nil {
		return "", err
	}
	return strings.TrimSpace(buf.String()), nil
}

// HandleOrderCreated sends both emails. Each is attempted even if the other
// fails; the returned error covers every failed recipient.
func (n *OrderNotifier) HandleOrderCreated(ctx context.Context, evt models.OrderCreatedEvent) error {
	return errors.Join(
		n.NotifyAdmin(ctx, evt.Order, evt.User),
		n.ConfirmCustomer(ctx, evt.Order, evt.User),
	)
}

func (n *OrderNotifier) NotifyAdmin(ctx context.Context, order models.Order, user models.User) error {
	data := orderEmailData{Order: order, User: user}
	text, err := render(func(b *bytes.Buffer) error { return n.adminText.Execute(b, data) })
	if err != nil {
		return fmt.Errorf("render admin text: %w", err)
	}
	html, err := render(func(b *bytes.Buffer) error { return n.adminHTML.Execute(b, data) })
	if err != nil {
		return fmt.Errorf("render admin html: %w", err)
	}
	return n.send(ctx, "admin", sender.Message{
		To:      n.adminEmail,
		Subject: AdminOrderSubject(order),
		Text:    text,
		HTML:    html,
	}, order.ID)
}

func (n *OrderNotifier) ConfirmCustomer(ctx context.Context, order models.Order, user models.User) error {
	if strings.TrimSpace(user.Email) == "" {
		n.logger.Warn("Missing customer email, skipping confirmation", zap.String("order_id", order.ID))
		return nil
	}
	html, err := render(func(b *bytes.Buffer) error {
		return n.customer.Execute(b, orderEmailData{Order: order, User: user})
	})
	if err != nil {
		return fmt.Errorf("render customer html: %w", err)
	}
	return n.send(ctx, "customer", sender.Message{
		To:      user.Email,
		Subject: CustomerOrderSubject(order),
		HTML:    html,
	}, order.ID)
}

func (n *OrderNotifier) send(ctx context.Context, kind string, msg sender.Message, orderID string) error {
	res, err := n.sender.SendEmail(ctx, msg)
	if err != nil {
		n.logger.Error("Failed to send order email",
			zap.String("kind", kind),
			zap.String("order_id", orderID),
			zap.Error(err),
		)
		return fmt.Errorf("send %s email for order %s: %w", kind, orderID, err)
	}
	n.logger.Info("Order email sent",
		zap.String("kind", kind),
		zap.String("order_id", orderID),
		zap.String("message_id", res.MessageID),
	)
	return nil
}
