package settlement

import (
	"bytes"
	"fmt"
	"text/template"

	"auction-engine/internal/models"
	"auction-engine/internal/notify"

	"github.com/shopspring/decimal"
)

// Cash on delivery is split into an upfront share and the remainder on delivery
var (
	codUpfrontShare  = decimal.NewFromFloat(0.20)
	codDeliveryShare = decimal.NewFromFloat(0.80)
)

var winnerTemplate = template.Must(template.New("winner").Parse(`Dear {{.Winner.UserName}},

Congratulations! You have won the auction for "{{.Auction.Title}}" with a winning bid of {{.Amount}}.

Please complete your payment using one of the following methods.
{{with .Payment}}{{if .BankAccountNumber}}
Bank transfer
  Account name:   {{.BankAccountName}}
  Account number: {{.BankAccountNumber}}
  Bank:           {{.BankName}}
{{end}}{{if .RazorpayNumber}}
Razorpay
  Send the payment to: {{.RazorpayNumber}}
{{end}}{{if .PaypalEmail}}
PayPal
  Send the payment to: {{.PaypalEmail}}
{{end}}{{end}}
Cash on delivery
  Pay {{.Upfront}} (20%) upfront using any method above.
  Pay the remaining {{.OnDelivery}} (80%) on delivery.

To arrange delivery or ask about the item, contact the auctioneer at {{.Auctioneer.Email}}.

Thank you for bidding with us.
`))

type winnerView struct {
	Winner     models.User
	Auctioneer models.User
	Auction    models.Auction
	Payment    models.PaymentMethods
	Amount     string
	Upfront    string
	OnDelivery string
}

// ComposeWinnerEmail builds the payment instructions sent to an auction winner
func ComposeWinnerEmail(auction models.Auction, winner, auctioneer models.User, amount float64) (notify.Email, error) {
	total := decimal.NewFromFloat(amount)
	view := winnerView{
		Winner:     winner,
		Auctioneer: auctioneer,
		Auction:    auction,
		Payment:    auctioneer.PaymentMethods,
		Amount:     total.StringFixed(2),
		Upfront:    total.Mul(codUpfrontShare).StringFixed(2),
		OnDelivery: total.Mul(codDeliveryShare).StringFixed(2),
	}

	var body bytes.Buffer
	if err := winnerTemplate.Execute(&body, view); err != nil {
		return notify.Email{}, fmt.Errorf("render winner email for auction %s: %w", auction.AuctionID, err)
	}

	return notify.Email{
		To:      winner.Email,
		Subject: fmt.Sprintf("Congratulations! You won the auction for %s", auction.Title),
		Body:    body.String(),
	}, nil
}
