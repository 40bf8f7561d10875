package printing

import (
	"bytes"
	"context"
	"encoding/base64"
	"image/png"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/lucacel82/luccacell/internal/sales"
)

func TestCurrency(t *testing.T) {
	assert.Equal(t, "R$ 1.234,56", Currency(decimal.RequireFromString("1234.56")))
	assert.Equal(t, "R$ 30,00", Currency(decimal.NewFromInt(30)))
	assert.Equal(t, "R$ 0,10", Currency(decimal.RequireFromString("0.099")))
}

func TestDates(t *testing.T) {
	at := time.Date(2024, 3, 5, 14, 7, 0, 0, time.UTC)
	assert.Equal(t, "05/03/2024", Date(at))
	assert.Equal(t, "05/03/2024 14:07", DateTime(at))
}

func TestCashClosing(t *testing.T) {
	day := time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)
	generated := day.Add(19 * time.Hour)

	t.Run("refuses an empty day", func(t *testing.T) {
		_, err := NewCashClosing("LUCCA CELL", day, nil, generated)
		assert.ErrorIs(t, err, ErrNoSales)
	})

	t.Run("itemises the day", func(t *testing.T) {
		daySales := []*sales.Sale{
			{ProductName: "Capa <iPhone>", Quantity: 3, UnitValue: decimal.RequireFromString("10.00")},
			{ProductName: "Carregador", Quantity: 1, UnitValue: decimal.RequireFromString("1200.50")},
		}

		c, err := NewCashClosing("LUCCA CELL", day, daySales, generated)
		require.NoError(t, err)
		assert.True(t, c.Total.Equal(decimal.RequireFromString("1230.50")))
		assert.Equal(t, "fechamento-caixa-05-03-2024.pdf", c.FileName())

		var buf bytes.Buffer
		require.NoError(t, c.RenderHTML(&buf))
		html := buf.String()

		assert.Contains(t, html, "FECHAMENTO DE CAIXA")
		assert.Contains(t, html, "05/03/2024")
		assert.Contains(t, html, "Gerado em:</strong> 05/03/2024 19:00")
		assert.Contains(t, html, "2 itens")
		assert.Contains(t, html, "Capa &lt;iPhone&gt;")
		assert.Contains(t, html, "R$ 30,00")
		assert.Contains(t, html, "TOTAL GERAL: R$ 1.230,50")
		for _, col := range []string{"PRODUTO", "QTD", "VALOR UNIT.", "TOTAL"} {
			assert.Contains(t, html, col)
		}
	})
}

func TestRenderLabel(t *testing.T) {
	label := Label{
		Settings:    PrinterSettings{LabelWidth: LabelWidth80, StoreName: "LUCCA CELL"},
		ProductName: "Película 3D",
		Price:       decimal.RequireFromString("25.90"),
		Barcode:     "7891234567895",
		SaleID:      "0b7c1a8e-5d2f-4c8e-9a51-6f7a1e9d2c40",
		SaleDate:    time.Date(2024, 3, 5, 10, 0, 0, 0, time.UTC),
	}

	t.Run("full label", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, RenderLabel(&buf, label))
		html := buf.String()

		assert.Contains(t, html, "width: 80mm")
		assert.Contains(t, html, "LUCCA CELL")
		assert.Contains(t, html, "Película 3D")
		assert.Contains(t, html, "R$ 25,90")
		assert.Contains(t, html, "Cód: 7891234567895")
		assert.Contains(t, html, `class="barcode" src="data:image/png;base64,`)
		assert.Contains(t, html, `class="qrcode" src="data:image/png;base64,`)
		assert.Contains(t, html, "05/03/2024")
	})

	t.Run("without barcode", func(t *testing.T) {
		l := label
		l.Barcode = ""
		l.Settings.LabelWidth = ""

		var buf bytes.Buffer
		require.NoError(t, RenderLabel(&buf, l))
		html := buf.String()

		assert.Contains(t, html, "width: 58mm")
		assert.NotContains(t, html, "Cód:")
		assert.NotContains(t, html, `class="barcode"`)
		assert.Contains(t, html, `class="qrcode"`)
	})
}

func TestCodeDataURLs(t *testing.T) {
	url, err := QRCodeDataURL("sale-1")
	require.NoError(t, err)

	payload := strings.TrimPrefix(string(url), "data:image/png;base64,")
	raw, err := base64.StdEncoding.DecodeString(payload)
	require.NoError(t, err)
	img, err := png.Decode(bytes.NewReader(raw))
	require.NoError(t, err)
	assert.Equal(t, qrSize, img.Bounds().Dx())

	url, err = BarcodeDataURL("123456")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(url), "data:image/png;base64,"))
}

func TestSettingsService(t *testing.T) {
	ctx := context.Background()
	defaults := DefaultSettings("")

	t.Run("defaults before anything is saved", func(t *testing.T) {
		svc := NewSettingsService(NewMemorySettingsStore(), defaults, zaptest.NewLogger(t))

		s, err := svc.Get(ctx, "owner-1")

		require.NoError(t, err)
		assert.Equal(t, PrinterSettings{LabelWidth: LabelWidth58, AutoPrint: false, StoreName: "LUCCA CELL"}, s)
	})

	t.Run("partial update merges", func(t *testing.T) {
		svc := NewSettingsService(NewMemorySettingsStore(), defaults, zaptest.NewLogger(t))
		auto := true
		width := LabelWidth80

		_, err := svc.Update(ctx, "owner-1", SettingsPatch{AutoPrint: &auto})
		require.NoError(t, err)
		s, err := svc.Update(ctx, "owner-1", SettingsPatch{LabelWidth: &width})
		require.NoError(t, err)

		assert.Equal(t, PrinterSettings{LabelWidth: LabelWidth80, AutoPrint: true, StoreName: "LUCCA CELL"}, s)

		other, err := svc.Get(ctx, "owner-2")
		require.NoError(t, err)
		assert.Equal(t, defaults, other)
	})

	t.Run("rejects unknown width", func(t *testing.T) {
		svc := NewSettingsService(NewMemorySettingsStore(), defaults, zaptest.NewLogger(t))
		width := LabelWidth("100mm")

		_, err := svc.Update(ctx, "owner-1", SettingsPatch{LabelWidth: &width})
		assert.ErrorIs(t, err, ErrInvalidLabelWidth)
	})

	t.Run("blank store name restores the default", func(t *testing.T) {
		svc := NewSettingsService(NewMemorySettingsStore(), defaults, zaptest.NewLogger(t))
		blank := "  "

		s, err := svc.Update(ctx, "owner-1", SettingsPatch{StoreName: &blank})
		require.NoError(t, err)
		assert.Equal(t, DefaultStoreName, s.StoreName)
	})

	t.Run("stored fields merge over defaults", func(t *testing.T) {
		store := NewMemorySettingsStore()
		require.NoError(t, store.Save(ctx, "owner-1", []byte(`{"auto_print":true}`)))
		require.NoError(t, store.Save(ctx, "owner-2", []byte(`not json`)))
		svc := NewSettingsService(store, defaults, zaptest.NewLogger(t))

		s, err := svc.Get(ctx, "owner-1")
		require.NoError(t, err)
		assert.True(t, s.AutoPrint)
		assert.Equal(t, LabelWidth58, s.LabelWidth)

		s, err = svc.Get(ctx, "owner-2")
		require.NoError(t, err)
		assert.Equal(t, defaults, s)
	})
}

func TestPebbleSettingsStore(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	store, err := OpenPebbleSettingsStore(dir)
	require.NoError(t, err)

	_, err = store.Load(ctx, "owner-1")
	assert.ErrorIs(t, err, ErrNoSettings)

	svc := NewSettingsService(store, DefaultSettings("Loja Centro"), zaptest.NewLogger(t))
	width := LabelWidth80
	_, err = svc.Update(ctx, "owner-1", SettingsPatch{LabelWidth: &width})
	require.NoError(t, err)
	require.NoError(t, store.Close())

	reopened, err := OpenPebbleSettingsStore(dir)
	require.NoError(t, err)
	defer reopened.Close()

	s, err := NewSettingsService(reopened, DefaultSettings("Loja Centro"), zaptest.NewLogger(t)).Get(ctx, "owner-1")
	require.NoError(t, err)
	assert.Equal(t, LabelWidth80, s.LabelWidth)
	assert.Equal(t, "Loja Centro", s.StoreName)
}

func TestChromedpRenderer(t *testing.T) {
	r := NewChromedpRenderer(ChromedpConfig{}, zaptest.NewLogger(t))
	defer r.Close()

	assert.Equal(t, defaultRenderTimeout, r.config.Timeout)

	_, err := r.RenderPDF(context.Background(), "   ")
	assert.ErrorIs(t, err, ErrEmptyDocument)
}

func TestChromedpRendererClose(t *testing.T) {
	r := NewChromedpRenderer(ChromedpConfig{}, zaptest.NewLogger(t))

	// No browser has been started yet.
	assert.Nil(t, r.browserCtx)
	require.NoError(t, r.Close())
	require.NoError(t, r.Close())

	_, err := r.RenderPDF(context.Background(), "<p>fechamento</p>")
	assert.ErrorIs(t, err, ErrRendererClosed)
	assert.Nil(t, r.browserCtx)
}
