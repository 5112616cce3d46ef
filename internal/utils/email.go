package utils

import (
	"bytes"
	"fmt"
	"log"

	"velora_back_end/internal/config"
	"velora_back_end/internal/models"

	"github.com/wneessen/go-mail"
)

// Mailer envoie les e-mails transactionnels via SMTP.
type Mailer struct {
	cfg *config.Config
}

func NewMailer(cfg *config.Config) *Mailer {
	return &Mailer{cfg: cfg}
}

// SendOrderConfirmation envoie la confirmation de commande, avec la facture
// PDF en pièce jointe si elle a pu être générée.
func (m *Mailer) SendOrderConfirmation(to string, order *models.Order, pdf []byte) error {
	msg := mail.NewMsg()

	if err := msg.From(m.cfg.EmailFrom); err != nil {
		return err
	}
	if err := msg.To(to); err != nil {
		return err
	}
	msg.Subject("Confirmation de votre commande Velora")
	msg.SetBodyString(mail.TypeTextHTML, OrderConfirmationHTML(order))

	if pdf != nil {
		msg.AttachReader("facture_velora.pdf", bytes.NewReader(pdf))
	}

	client, err := mail.NewClient(m.cfg.SMTPHost,
		mail.WithPort(m.cfg.SMTPPort),
		mail.WithSMTPAuth(mail.SMTPAuthLogin),
		mail.WithUsername(m.cfg.SMTPUsername),
		mail.WithPassword(m.cfg.SMTPPassword),
		mail.WithTLSPolicy(mail.TLSMandatory),
	)
	if err != nil {
		return err
	}

	log.Println("📤 Envoi de l'e-mail à", to)
	return client.DialAndSend(msg)
}

// OrderConfirmationHTML génère le corps HTML de la confirmation de commande.
func OrderConfirmationHTML(order *models.Order) string {
	itemsHTML := ""
	for _, item := range order.Items {
		itemsHTML += fmt.Sprintf(`
			<tr>
				<td style="padding: 8px; border: 1px solid #ddd;">%s</td>
				<td style="padding: 8px; border: 1px solid #ddd;">%d</td>
				<td style="padding: 8px; border: 1px solid #ddd;">%.2f€</td>
				<td style="padding: 8px; border: 1px solid #ddd;">%.2f€</td>
			</tr>`, item.Name, item.Qty, item.Price, item.Price*float64(item.Qty))
	}

	return fmt.Sprintf(`
<!DOCTYPE html>
<html lang="fr">
<head>
	<meta charset="UTF-8">
	<title>Confirmation de commande</title>
</head>
<body style="font-family: Arial, sans-serif; background-color: #f9f9f9; padding: 20px;">
	<div style="max-width: 600px; margin: auto; background-color: white; padding: 20px; border-radius: 10px;">
		<h2 style="color: #333;">Confirmation de votre commande</h2>
		<p>Bonjour,</p>
		<p>Votre commande <strong>%s</strong> a été confirmée avec succès.</p>

		<h3>Détails de la commande</h3>
		<table style="width: 100%%; border-collapse: collapse; margin: 20px 0;">
			<thead>
				<tr style="background-color: #f0f0f0;">
					<th style="padding: 8px; text-align: left; border: 1px solid #ddd;">Produit</th>
					<th style="padding: 8px; text-align: left; border: 1px solid #ddd;">Quantité</th>
					<th style="padding: 8px; text-align: left; border: 1px solid #ddd;">Prix unitaire</th>
					<th style="padding: 8px; text-align: left; border: 1px solid #ddd;">Total</th>
				</tr>
			</thead>
			<tbody>%s</tbody>
		</table>

		<table style="width: 100%%; margin: 10px 0;">
			<tr><td style="text-align: right;">Articles :</td><td style="text-align: right; width: 100px;">%.2f€</td></tr>
			<tr><td style="text-align: right;">Livraison :</td><td style="text-align: right;">%.2f€</td></tr>
			<tr><td style="text-align: right;">TVA :</td><td style="text-align: right;">%.2f€</td></tr>
			<tr><td style="text-align: right; font-weight: bold;">Total :</td><td style="text-align: right; font-weight: bold;">%.2f€</td></tr>
		</table>

		<p style="margin-top: 30px; color: #555;">
			Cordialement,<br>
			<strong>L'équipe Velora</strong>
		</p>
	</div>
</body>
</html>`, order.ID.Hex(), itemsHTML, order.ItemsPrice, order.ShippingPrice, order.TaxPrice, order.TotalPrice)
}
