package printing

import (
	"bytes"
	"encoding/base64"
	"html/template"
	"image"
	"image/png"
	"io"
	"time"

	"github.com/boombuler/barcode"
	"github.com/boombuler/barcode/code128"
	"github.com/boombuler/barcode/qr"
	"github.com/shopspring/decimal"
)

const (
	barcodeHeight = 40
	qrSize        = 80
)

// Label is a product label printed for a sale.
type Label struct {
	Settings    PrinterSettings
	ProductName string
	Price       decimal.Decimal
	Barcode     string
	SaleID      string
	SaleDate    time.Time
}

type labelView struct {
	Label
	Width      LabelWidth
	BarcodeURL template.URL
	QRCodeURL  template.URL
}

// RenderLabel writes the label as HTML sized for the configured paper.
// Codes that cannot be encoded are left out.
func RenderLabel(w io.Writer, l Label) error {
	view := labelView{Label: l, Width: l.Settings.LabelWidth}
	if !view.Width.Valid() {
		view.Width = LabelWidth58
	}
	if l.Barcode != "" {
		view.BarcodeURL, _ = BarcodeDataURL(l.Barcode)
	}
	if l.SaleID != "" {
		view.QRCodeURL, _ = QRCodeDataURL(l.SaleID)
	}
	return labelTemplate.Execute(w, view)
}

// BarcodeDataURL encodes code as a Code 128 PNG data URL.
func BarcodeDataURL(code string) (template.URL, error) {
	bc, err := code128.Encode(code)
	if err != nil {
		return "", err
	}
	scaled, err := barcode.Scale(bc, bc.Bounds().Dx()*2, barcodeHeight)
	if err != nil {
		return "", err
	}
	return pngDataURL(scaled)
}

// QRCodeDataURL encodes content as a QR code PNG data URL.
func QRCodeDataURL(content string) (template.URL, error) {
	bc, err := qr.Encode(content, qr.M, qr.Auto)
	if err != nil {
		return "", err
	}
	scaled, err := barcode.Scale(bc, qrSize, qrSize)
	if err != nil {
		return "", err
	}
	return pngDataURL(scaled)
}

func pngDataURL(img image.Image) (template.URL, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return "", err
	}
	return template.URL("data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.Bytes())), nil
}

var labelTemplate = template.Must(template.New("label").Funcs(funcs).Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8"/>
<title>Etiqueta</title>
<style>
  @page { size: {{.Width}} auto; margin: 2mm; }
  * { margin:0; padding:0; box-sizing:border-box; }
  body { font-family: 'Courier New', monospace; width: {{.Width}}; text-align:center; padding:2mm; }
  .store { font-size:11px; margin-bottom:4px; }
  .product { font-size:14px; font-weight:bold; margin:6px 0; word-wrap:break-word; }
  .price { font-size:20px; font-weight:bold; margin:6px 0; }
  .code { font-size:9px; color:#555; margin:4px 0; }
  .date { font-size:9px; color:#777; margin-top:6px; }
  .separator { border-top:1px dashed #999; margin:4px 0; }
</style>
</head>
<body>
  <div class="store">{{.Settings.StoreName}}</div>
  <div class="separator"></div>
  <div class="product">{{.ProductName}}</div>
  <div class="price">{{brl .Price}}</div>
  {{- if .Barcode}}
  <div class="code">Cód: {{.Barcode}}</div>
  {{- end}}
  {{- if .BarcodeURL}}
  <img class="barcode" src="{{.BarcodeURL}}" style="max-width:90%;height:auto;margin:4px auto;display:block;"/>
  {{- end}}
  {{- if .QRCodeURL}}
  <img class="qrcode" src="{{.QRCodeURL}}" style="width:60px;height:60px;margin:4px auto;display:block;"/>
  {{- end}}
  <div class="separator"></div>
  <div class="date">{{date .SaleDate}}</div>
</body>
</html>
`))
