package printing

// invoiceTemplate is the A4 invoice layout. It is executed with an
// InvoiceDocument plus the Lang of the engine.
const invoiceTemplate = `<!DOCTYPE html>
<html lang="{{.Lang}}">
<head>
<meta charset="UTF-8">
<title>{{.Title}}</title>
<style>
  body { font-family: "DejaVu Sans", Arial, sans-serif; font-size: 11pt; color: #222; margin: 0; }
  h1 { font-size: 20pt; margin: 0 0 8mm 0; }
  .parties { display: flex; justify-content: space-between; margin-bottom: 8mm; }
  .party { width: 48%; border: 1px solid #ccc; padding: 4mm; box-sizing: border-box; }
  .party h2 { font-size: 10pt; text-transform: uppercase; color: #666; margin: 0 0 2mm 0; }
  .party .name { font-weight: bold; font-size: 12pt; }
  table { width: 100%; border-collapse: collapse; }
  th, td { padding: 2mm; border-bottom: 1px solid #ddd; text-align: left; }
  td.amount, th.amount { text-align: right; }
  .dates td { border: none; padding: 0 4mm 1mm 0; }
  .total td { font-weight: bold; border-top: 2px solid #222; }
  .note { margin-top: 8mm; font-style: italic; }
</style>
</head>
<body>
<h1>Invoice {{.InvoiceNumber}}</h1>

<table class="dates">
  <tr><td>Issued</td><td>{{date .Issued}}</td></tr>
  <tr><td>Due</td><td>{{date .DueDate}}</td></tr>
</table>

<div class="parties">
  <div class="party">
    <h2>Seller</h2>
    {{template "party" .Seller}}
  </div>
  <div class="party">
    <h2>Buyer</h2>
    {{template "party" .Buyer}}
  </div>
</div>

<table>
  <thead>
    <tr><th>Product</th><th class="amount">Price</th><th class="amount">VAT</th><th class="amount">VAT amount</th></tr>
  </thead>
  <tbody>
    <tr>
      <td>{{.Product}}</td>
      <td class="amount">{{money .Price}}</td>
      <td class="amount">{{percent .VAT}}</td>
      <td class="amount">{{money .VATAmount}}</td>
    </tr>
    <tr class="total"><td colspan="3">Total</td><td class="amount">{{money .Total}}</td></tr>
  </tbody>
</table>

{{if .Note}}<p class="note">{{.Note}}</p>{{end}}
</body>
</html>
{{define "party"}}
    <div class="name">{{.Name}}</div>
    <div>{{.Street}}</div>
    <div>{{.Zip}} {{.City}}</div>
    <div>{{country .Country}}</div>
    <div>IC: {{.IdentificationNumber}}{{if .TaxNumber}}, DIC: {{.TaxNumber}}{{end}}</div>
    {{- if .AccountNumber}}
    <div>Account: {{.AccountNumber}}/{{.BankCode}}</div>
    {{- end}}
    {{- if .IBAN}}
    <div>IBAN: {{.IBAN}}</div>
    {{- end}}
    {{- if .Email}}
    <div>{{.Email}}</div>
    {{- end}}
{{end}}`
