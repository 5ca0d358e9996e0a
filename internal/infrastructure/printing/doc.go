// Package printing turns invoices into documents: an html/template layout
// formatted with golang.org/x/text for the configured locale, and a
// chromedp renderer that prints that HTML to an A4 PDF.
//
//	engine, err := printing.NewTemplateEngine(printing.WithLocale("cs"), printing.WithCurrency("CZK"))
//	doc, err := printing.NewInvoiceDocument(inv)
//	html, err := engine.Render(ctx, doc)
//	result, err := renderer.Render(ctx, &printing.RenderRequest{HTML: html, Margins: printing.DefaultMargins()})
package printing
