package email

import (
	"errors"
	"fmt"
	"mime"
	"net"
	"net/mail"
	"net/smtp"
	"strings"
	"time"

	"github.com/example/retail-pos/internal/logging"
	"github.com/sony/gobreaker"
	"golang.org/x/text/currency"
)

var ErrNoRecipients = errors.New("no recipients")

// SendFunc has the signature of smtp.SendMail.
type SendFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

// Service sends notification mail through SMTP. Sends pass through a circuit
// breaker so a dead mail server is not hammered by every event.
type Service struct {
	addr     string
	from     mail.Address
	currency currency.Unit
	send     SendFunc
	cb       *gobreaker.CircuitBreaker
}

type Option func(*Service)

// WithSender replaces smtp.SendMail.
func WithSender(send SendFunc) Option {
	return func(s *Service) { s.send = send }
}

func NewService(host, port, from string, unit currency.Unit, opts ...Option) *Service {
	log := logging.New("email")
	s := &Service{
		addr:     net.JoinHostPort(host, port),
		from:     mail.Address{Name: "Retail POS", Address: from},
		currency: unit,
		send:     smtp.SendMail,
	}
	s.cb = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "smtp",
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.WithField("breaker", name).Warnf("circuit breaker state changed from %s to %s", from, to)
		},
	})
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SendLowStockAlert mails every recipient one alert listing the product.
func (s *Service) SendLowStockAlert(to []string, alert LowStockAlert) error {
	body, err := renderLowStock(alert)
	if err != nil {
		return err
	}
	subject := fmt.Sprintf("Estoque baixo: %s (%s)", alert.ProductName, alert.SKU)
	return s.deliver(to, subject, body)
}

// SendReceipt mails the receipt of a completed sale.
func (s *Service) SendReceipt(to string, receipt Receipt) error {
	receipt.Currency = s.currency
	body, err := renderReceipt(receipt)
	if err != nil {
		return err
	}
	subject := fmt.Sprintf("Comprovante de venda %s", shortID(receipt.SaleID))
	return s.deliver([]string{to}, subject, body)
}

func (s *Service) deliver(to []string, subject, body string) error {
	recipients := make([]string, 0, len(to))
	for _, addr := range to {
		parsed, err := mail.ParseAddress(addr)
		if err != nil {
			continue
		}
		recipients = append(recipients, parsed.Address)
	}
	if len(recipients) == 0 {
		return ErrNoRecipients
	}

	msg := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\nMIME-Version: 1.0\r\nContent-Type: text/html; charset=UTF-8\r\n\r\n%s",
		s.from.String(), strings.Join(recipients, ", "), mime.QEncoding.Encode("utf-8", subject), body)

	_, err := s.cb.Execute(func() (any, error) {
		return nil, s.send(s.addr, nil, s.from.Address, recipients, []byte(msg))
	})
	return err
}

// State reports the breaker state, for health output.
func (s *Service) State() gobreaker.State {
	return s.cb.State()
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
