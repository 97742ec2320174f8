package scanning

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"  // GIF decoder
	_ "image/jpeg" // JPEG decoder
	"image/png"
	"strings"

	"github.com/gen2brain/go-fitz"
	"github.com/gen2brain/heic"
)

const billPromptTemplate = `Tu analyses le justificatif d'une note de frais (ticket, facture ou reçu). Lis tout le texte du document et extrais :

1. "type" : la catégorie de dépense, choisie parmi : %s.
2. "name" : une courte description, en commençant par le nom du commerçant (ex. "Hôtel du centre ville").
3. "date" : la date de la dépense au format AAAA-MM-JJ.
4. "amount" : le montant TTC total, en nombre (ex. 348.50).
5. "vat" : le montant de TVA, en nombre (ex. 58.08). null si absent.
6. "pct" : le taux de TVA en pourcentage entier (ex. 20). null si absent.

Réponds UNIQUEMENT avec un objet JSON de la forme :
{"type": "...", "name": "...", "date": "AAAA-MM-JJ", "amount": 0.00, "vat": 0.00, "pct": 20}

Pas de texte avant ou après le JSON, pas de bloc markdown.`

// billPrompt lists the allowed categories in the scanning prompt
func billPrompt(types []string) string {
	quoted := make([]string, len(types))
	for i, t := range types {
		quoted[i] = fmt.Sprintf("%q", t)
	}
	return fmt.Sprintf(billPromptTemplate, strings.Join(quoted, ", "))
}

// pdfToImage renders the first page of a PDF as PNG
func pdfToImage(pdfData []byte) ([]byte, error) {
	doc, err := fitz.NewFromMemory(pdfData)
	if err != nil {
		return nil, fmt.Errorf("opening PDF: %w", err)
	}
	defer doc.Close()

	img, err := doc.Image(0)
	if err != nil {
		return nil, fmt.Errorf("rendering PDF page: %w", err)
	}
	return encodePNG(img)
}

// imageToPNG re-encodes JPEG, GIF or HEIC/HEIF images as PNG
func imageToPNG(data []byte, mimeType string) ([]byte, error) {
	var (
		img image.Image
		err error
	)
	if isHEIC(data, mimeType) {
		img, err = heic.Decode(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("decoding HEIC/HEIF image: %w", err)
		}
		return encodePNG(img)
	}

	img, _, err = image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("unsupported image format (JPEG, PNG, GIF, HEIC, HEIF or PDF expected): %w", err)
	}
	return encodePNG(img)
}

func encodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encoding PNG: %w", err)
	}
	return buf.Bytes(), nil
}

// isHEIC checks the MIME type and the ftyp brand at offset 4
func isHEIC(data []byte, mimeType string) bool {
	if strings.Contains(mimeType, "heic") || strings.Contains(mimeType, "heif") {
		return true
	}
	if len(data) < 12 || string(data[4:8]) != "ftyp" {
		return false
	}
	switch string(data[8:12]) {
	case "heic", "heif", "mif1", "msf1":
		return true
	}
	return false
}

// toPNG normalises any supported proof file to PNG bytes
func toPNG(data []byte, contentType string) ([]byte, error) {
	mimeType := strings.ToLower(strings.TrimSpace(contentType))
	if mimeType == "" {
		mimeType = "image/jpeg"
	}

	switch {
	case mimeType == "application/pdf":
		out, err := pdfToImage(data)
		if err != nil {
			return nil, fmt.Errorf("converting PDF to image: %w", err)
		}
		return out, nil
	case mimeType == "image/png" && !isHEIC(data, mimeType):
		return data, nil
	default:
		out, err := imageToPNG(data, mimeType)
		if err != nil {
			return nil, fmt.Errorf("converting image to PNG: %w", err)
		}
		return out, nil
	}
}
