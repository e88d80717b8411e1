package service

import (
	"bytes"
	"context"
	"fmt"
	"text/template"

	"github.com/shopspring/decimal"

	"github.com/neilconnor2003/englischbuecher-sub001/internal/infra/mail"
	"github.com/neilconnor2003/englischbuecher-sub001/internal/infra/pdf"
	"github.com/neilconnor2003/englischbuecher-sub001/internal/model"
)

type IMailService interface {
	SendWelcomeEmail(ctx context.Context, data WelcomeEmailData) error
	SendPasswordResetEmail(ctx context.Context, data PasswordResetEmailData) error
	SendInvoiceEmail(ctx context.Context, order *model.Order, recipientEmail, recipientName string) error
}

type MailService struct {
	mail.EmailSender
	shopName string
}

// WelcomeEmailData 歡迎信的數據結構
type WelcomeEmailData struct {
	UserName string
	Email    string
	ShopURL  string
	ShopName string
}

// PasswordResetEmailData 重設密碼信的數據結構
type PasswordResetEmailData struct {
	UserName      string
	Email         string
	ResetURL      string
	ExpiryMinutes int
	ShopName      string
}

func NewMailService(sender mail.EmailSender, shopName string) IMailService {
	return &MailService{
		EmailSender: sender,
		shopName:    shopName,
	}
}

func (m *MailService) SendWelcomeEmail(ctx context.Context, data WelcomeEmailData) error {
	if data.ShopName == "" {
		data.ShopName = m.shopName
	}
	html, err := renderTemplate("welcome", welcomeTemplate, data)
	if err != nil {
		return err
	}
	return m.SendEmail("歡迎加入 "+data.ShopName, html, []string{data.Email}, nil, nil, nil)
}

func (m *MailService) SendPasswordResetEmail(ctx context.Context, data PasswordResetEmailData) error {
	if data.ShopName == "" {
		data.ShopName = m.shopName
	}
	html, err := renderTemplate("passwordReset", passwordResetTemplate, data)
	if err != nil {
		return err
	}
	return m.SendEmail("重設密碼", html, []string{data.Email}, nil, nil, nil)
}

// SendInvoiceEmail 寄出訂單確認信, 發票PDF以附件掛上
func (m *MailService) SendInvoiceEmail(ctx context.Context, order *model.Order, recipientEmail, recipientName string) error {
	if recipientEmail == "" {
		return fmt.Errorf("invoice email: recipient is empty for order %s", order.OrderID)
	}

	items := make([]pdf.InvoiceItem, 0, len(order.OrderItems))
	for _, it := range order.OrderItems {
		items = append(items, pdf.InvoiceItem{
			Title:     it.Title,
			Quantity:  it.Quantity,
			UnitPrice: it.UnitPrice,
			Subtotal:  it.UnitPrice.Mul(decimalFromInt(it.Quantity)),
		})
	}

	issuedAt := order.CreatedAt
	invoice, err := pdf.GenerateInvoice(pdf.InvoiceData{
		OrderID:       order.OrderID,
		IssuedAt:      issuedAt,
		CustomerName:  recipientName,
		CustomerEmail: recipientEmail,
		Street:        order.Street,
		City:          order.City,
		PostalCode:    order.PostalCode,
		Country:       order.Country,
		Items:         items,
		ShippingCost:  order.ShippingCost,
		Total:         order.TotalPrice,
		Currency:      order.PaymentCurrency,
		SellerName:    m.shopName,
	})
	if err != nil {
		return err
	}

	html, err := renderTemplate("invoice", invoiceTemplate, struct {
		UserName string
		OrderID  string
		Total    string
		ShopName string
	}{
		UserName: recipientName,
		OrderID:  order.OrderID,
		Total:    order.TotalPrice.StringFixed(2) + " " + order.PaymentCurrency,
		ShopName: m.shopName,
	})
	if err != nil {
		return err
	}

	attachment := mail.Attachment{
		Filename:    fmt.Sprintf("invoice_%s.pdf", order.OrderID),
		ContentType: "application/pdf",
		Content:     invoice,
	}
	return m.SendEmail("您的訂單 "+order.OrderID, html, []string{recipientEmail}, nil, nil, []mail.Attachment{attachment})
}

func decimalFromInt(v int) decimal.Decimal {
	return decimal.NewFromInt(int64(v))
}

func renderTemplate(name, tmplStr string, data any) (string, error) {
	tmpl, err := template.New(name).Parse(tmplStr)
	if err != nil {
		return "", fmt.Errorf("解析 HTML 模板失敗: %w", err)
	}

	var buf bytes.Buffer
	if err = tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("執行 HTML 模板失敗: %w", err)
	}
	return buf.String(), nil
}

// HTML 模板
const welcomeTemplate = `
<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <style>
        body { font-family: Arial, sans-serif; line-height: 1.6; color: #333; }
        .container { max-width: 600px; margin: 0 auto; padding: 20px; }
        .header { background-color: #2c3e50; color: white; padding: 20px; text-align: center; }
        .content { padding: 30px; background-color: #f9f9f9; }
        .button { display: inline-block; padding: 12px 30px; background-color: #2c3e50; color: white; text-decoration: none; border-radius: 5px; margin: 20px 0; }
        .footer { padding: 20px; text-align: center; font-size: 12px; color: #666; }
    </style>
</head>
<body>
    <div class="container">
        <div class="header">
            <h1>歡迎加入 {{.ShopName}}</h1>
        </div>
        <div class="content">
            <p>{{.UserName}} 您好,</p>
            <p>感謝您註冊 {{.ShopName}} 帳號, 現在就開始逛逛吧。</p>
            <div style="text-align: center;">
                <a href="{{.ShopURL}}" class="button">前往書店</a>
            </div>
        </div>
        <div class="footer">
            <p>此郵件由系統自動發送，請勿直接回覆。</p>
        </div>
    </div>
</body>
</html>
`

const passwordResetTemplate = `
<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <style>
        body { font-family: Arial, sans-serif; line-height: 1.6; color: #333; }
        .container { max-width: 600px; margin: 0 auto; padding: 20px; }
        .content { padding: 30px; background-color: #f9f9f9; }
        .button { display: inline-block; padding: 12px 30px; background-color: #2c3e50; color: white; text-decoration: none; border-radius: 5px; margin: 20px 0; }
        .warning { color: #e74c3c; font-weight: bold; }
    </style>
</head>
<body>
    <div class="container">
        <div class="content">
            <p>{{.UserName}} 您好,</p>
            <p>我們收到您重設密碼的請求，請點擊下方按鈕設定新密碼：</p>
            <div style="text-align: center;">
                <a href="{{.ResetURL}}" class="button">重設密碼</a>
            </div>
            <p class="warning">此連結將在 {{.ExpiryMinutes}} 分鐘後失效。</p>
            <p>如果您沒有提出此請求，請忽略此郵件。</p>
        </div>
    </div>
</body>
</html>
`

const invoiceTemplate = `
<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <style>
        body { font-family: Arial, sans-serif; line-height: 1.6; color: #333; }
        .container { max-width: 600px; margin: 0 auto; padding: 20px; }
        .content { padding: 30px; background-color: #f9f9f9; }
    </style>
</head>
<body>
    <div class="container">
        <div class="content">
            <p>{{.UserName}} 您好,</p>
            <p>感謝您的訂購, 訂單 <strong>{{.OrderID}}</strong> 已成立。</p>
            <p>總金額: <strong>{{.Total}}</strong></p>
            <p>發票請見附件。</p>
            <p>{{.ShopName}} 敬上</p>
        </div>
    </div>
</body>
</html>
`
