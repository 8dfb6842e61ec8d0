package pdf

import (
	"bytes"
	"context"
	"io"

	"github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/props"
)

type VoucherLine struct {
	Label  string
	Amount string
}

type VoucherData struct {
	VoucherNumber string
	CoopName      string
	MemberName    string
	MemberCode    string
	EventName     string
	BondIssue     string
	PaymentDate   string
	Lines         []VoucherLine
	NetAmount     string
}

type PDFProvider struct{}

func NewProvider() Provider {
	return &PDFProvider{}
}

func (p *PDFProvider) GenerateVoucher(ctx context.Context, data VoucherData) (io.Reader, error) {
	cfg := config.NewBuilder().
		WithPageNumber(props.PageNumber{
			Pattern: "Page {current} of {total}",
			Place:   props.RightBottom,
		}).
		Build()

	m := maroto.New(cfg)

	m.AddRow(20,
		text.NewCol(8, "Payment Voucher", props.Text{
			Size:  20,
			Style: fontstyle.Bold,
			Align: align.Left,
		}),
		text.NewCol(4, data.CoopName, props.Text{
			Size:  10,
			Align: align.Right,
			Top:   5,
		}),
	)

	m.AddRow(24,
		col.New(6).Add(
			text.New("Voucher number: "+data.VoucherNumber, props.Text{Top: 0}),
			text.New("Payment date: "+data.PaymentDate, props.Text{Top: 5}),
			text.New("Bond issue: "+data.BondIssue, props.Text{Top: 10}),
			text.New("Event: "+data.EventName, props.Text{Top: 15}),
		),
		col.New(6).Add(
			text.New("Paid to", props.Text{Style: fontstyle.Bold}),
			text.New(data.MemberName, props.Text{Top: 5}),
			text.New("Member code: "+data.MemberCode, props.Text{Top: 10}),
		),
	)

	m.AddRow(10,
		text.NewCol(8, "Description", props.Text{Style: fontstyle.Bold, Size: 9}),
		text.NewCol(4, "Amount", props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}),
	)

	for _, line := range data.Lines {
		m.AddRow(8,
			text.NewCol(8, line.Label, props.Text{Size: 9}),
			text.NewCol(4, line.Amount, props.Text{Size: 9, Align: align.Right}),
		)
	}

	m.AddRow(14,
		col.New(6),
		text.NewCol(3, "Net payment", props.Text{Style: fontstyle.Bold, Size: 11, Top: 3}),
		text.NewCol(3, data.NetAmount, props.Text{Style: fontstyle.Bold, Size: 11, Align: align.Right, Top: 3}),
	)

	doc, err := m.Generate()
	if err != nil {
		return nil, err
	}

	return bytes.NewReader(doc.GetBytes()), nil
}
