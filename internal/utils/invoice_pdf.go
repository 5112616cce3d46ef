package utils

import (
	"context"
	"encoding/base64"
	"fmt"
	"time"

	"velora_back_end/internal/config"
	"velora_back_end/internal/models"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"github.com/skip2/go-qrcode"
)

// GenerateSepaQR génère un QR SEPA (format EPC) en base64, prêt à mettre
// dans un <img src="...">.
func GenerateSepaQR(iban, bic, name, ref string, amount float64) (string, error) {
	sepa := fmt.Sprintf(`BCD
001
1
SCT
%s
%s
%s
EUR%.2f
%s`, bic, name, iban, amount, ref)

	png, err := qrcode.Encode(sepa, qrcode.Medium, 256)
	if err != nil {
		return "", err
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(png), nil
}

// GenerateInvoicePDF rend la facture HTML en PDF via Chrome headless.
// Échec non bloquant : l'appelant envoie l'e-mail sans pièce jointe.
func GenerateInvoicePDF(cfg *config.Config, order *models.Order) ([]byte, error) {
	ref := "FACT-" + order.ID.Hex()

	qrBase64, err := GenerateSepaQR(cfg.CompanyIBAN, cfg.CompanyBIC, cfg.CompanyName, ref, order.TotalPrice)
	if err != nil {
		return nil, fmt.Errorf("erreur génération QR: %v", err)
	}

	html := invoiceHTML(cfg, order, ref, qrBase64)
	dataURL := "data:text/html;base64," + base64.StdEncoding.EncodeToString([]byte(html))

	ctx, cancel := chromedp.NewContext(context.Background())
	defer cancel()
	ctx, cancel = context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	var pdfBuf []byte
	err = chromedp.Run(ctx,
		chromedp.Navigate(dataURL),
		chromedp.WaitVisible("body", chromedp.ByQuery),
		chromedp.ActionFunc(func(ctx context.Context) error {
			buf, _, err := page.PrintToPDF().WithPrintBackground(true).Do(ctx)
			if err != nil {
				return err
			}
			pdfBuf = buf
			return nil
		}),
	)
	if err != nil {
		return nil, err
	}
	return pdfBuf, nil
}

func invoiceHTML(cfg *config.Config, order *models.Order, ref, qrBase64 string) string {
	itemsHTML := ""
	for _, item := range order.Items {
		itemsHTML += fmt.Sprintf(`
			<tr>
				<td>%s</td><td>%d</td><td>%.2f€</td><td>%.2f€</td>
			</tr>`, item.Name, item.Qty, item.Price, item.Price*float64(item.Qty))
	}

	return fmt.Sprintf(`
<!DOCTYPE html>
<html lang="fr">
<head><meta charset="UTF-8"><title>%s</title>
<style>
	body { font-family: Arial, sans-serif; margin: 40px; }
	table { width: 100%%; border-collapse: collapse; margin: 20px 0; }
	th, td { padding: 8px; border: 1px solid #ddd; text-align: left; }
	.totaux td { border: none; text-align: right; }
</style>
</head>
<body>
	<h1>%s</h1>
	<p>Facture <strong>%s</strong> — commande du %s</p>
	<p>%s<br>%s %s<br>%s</p>

	<table>
		<thead><tr><th>Produit</th><th>Quantité</th><th>Prix unitaire</th><th>Total</th></tr></thead>
		<tbody>%s</tbody>
	</table>

	<table class="totaux">
		<tr><td>Articles :</td><td>%.2f€</td></tr>
		<tr><td>Livraison :</td><td>%.2f€</td></tr>
		<tr><td>TVA :</td><td>%.2f€</td></tr>
		<tr><td><strong>Total :</strong></td><td><strong>%.2f€</strong></td></tr>
	</table>

	<p>Paiement par virement :</p>
	<img src="%s" width="160" height="160" alt="QR SEPA">
</body>
</html>`,
		ref, cfg.CompanyName, ref, order.CreatedAt.Format("02/01/2006"),
		order.ShippingAddress.Address, order.ShippingAddress.PostalCode, order.ShippingAddress.City,
		order.ShippingAddress.Country,
		itemsHTML,
		order.ItemsPrice, order.ShippingPrice, order.TaxPrice, order.TotalPrice,
		qrBase64)
}
