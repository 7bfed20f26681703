package service

import (
	"regexp"
	"strings"
)

// ExtractedWindow is the structured maintenance data pulled out of an email
// body, dates still in the carrier's textual form.
type ExtractedWindow struct {
	Start       string   `json:"inicio"`
	End         string   `json:"fin"`
	TaskType    string   `json:"tipo"`
	Affectation string   `json:"afectacion"`
	Description string   `json:"descripcion"`
	IDs         []string `json:"ids"`
}

// SniffedHeaders is what the email headers alone reveal: who sent the
// notification, the carrier's own ticket id, service identifiers mentioned
// anywhere in the message and whether the work is an emergency.
type SniffedHeaders struct {
	Carrier    string
	InternalID string
	TaskType   string
	ServiceIDs []string
}

var (
	disclaimerRe = regexp.MustCompile(`(?i)disclaimer|confidencial|aviso legal|confidentiality notice|correo(?:\s+electronico)?\s*(?:es\s+)?privado`)

	startLineRe    = regexp.MustCompile(`(?i)inicio[:\s-]+([^\n\r]+)`)
	endLineRe      = regexp.MustCompile(`(?i)fin[:\s-]+([^\n\r]+)`)
	servicesLineRe = regexp.MustCompile(`(?i)servicios?(?:\s+afectados)?[:\s-]+([A-Z0-9,\- ]+)`)
	carrierLineRe  = regexp.MustCompile(`(?i)carrier[:\s-]+([^\n\r]+)`)

	fromHeaderRe    = regexp.MustCompile(`(?im)^(?:from|de)\s*:\s*(.+)$`)
	nameHeaderRe    = regexp.MustCompile(`(?im)^(?:name|nombre)\s*:\s*(.+)$`)
	subjectHeaderRe = regexp.MustCompile(`(?im)^(?:subject|asunto)\s*:\s*(.+)$`)
	emailAddrRe     = regexp.MustCompile(`([A-Za-z0-9._%+\-]+)@[A-Za-z0-9.\-]+`)
	subjectSenderRe = regexp.MustCompile(`([^\-]+)-\s*METROTEL`)

	telxiusTicketRe = regexp.MustCompile(`SWX\d{7}`)
	genericTicketRe = regexp.MustCompile(`ID\w+`)
	telxiusCircuit  = regexp.MustCompile(`CRT-\d{6}`)
	numericToken    = regexp.MustCompile(`\b\d+\b`)
)

// carrierSenderPatterns maps sender-matching expressions to canonical
// carrier names. Checked in order before falling back to the address
// local-part.
var carrierSenderPatterns = []struct {
	re   *regexp.Regexp
	name string
}{
	{regexp.MustCompile(`(?i).*telxius.*`), "TELXIUS"},
}

// CleanEmailBody removes blank lines and truncates the body at the first
// legal disclaimer marker, which on carrier emails only adds noise after
// the useful content.
func CleanEmailBody(body string) string {
	var kept []string
	for _, line := range strings.Split(body, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		if disclaimerRe.MatchString(trimmed) {
			break
		}
		kept = append(kept, trimmed)
	}
	return strings.Join(kept, "\n")
}

// ExtractFast tries the cheap line-oriented extraction: explicit
// "Inicio:", "Fin:" and "Servicios afectados:" lines. Returns nil when any
// of the three is missing, signalling that the completion fallback is needed.
func ExtractFast(body string) *ExtractedWindow {
	start := startLineRe.FindStringSubmatch(body)
	end := endLineRe.FindStringSubmatch(body)
	services := servicesLineRe.FindStringSubmatch(body)
	if start == nil || end == nil || services == nil {
		return nil
	}

	var ids []string
	for _, part := range strings.Split(services[1], ",") {
		if token := strings.TrimSpace(part); token != "" {
			ids = append(ids, token)
		}
	}
	if len(ids) == 0 {
		return nil
	}

	return &ExtractedWindow{
		Start:    strings.TrimSpace(start[1]),
		End:      strings.TrimSpace(end[1]),
		TaskType: "Mantenimiento",
		IDs:      ids,
	}
}

// SniffHeaders inspects the raw message (headers included) for the sender
// carrier, the carrier's ticket id, service identifiers and the work type.
// Everything it finds is advisory; body extraction remains authoritative
// for the maintenance window itself.
func SniffHeaders(raw string) SniffedHeaders {
	sniffed := SniffedHeaders{TaskType: "Programada"}

	sender := firstSubmatch(fromHeaderRe, raw)
	if sender == "" {
		sender = firstSubmatch(nameHeaderRe, raw)
	}
	subject := firstSubmatch(subjectHeaderRe, raw)

	if sender != "" {
		sniffed.Carrier = carrierFromSender(sender)
	}
	if sniffed.Carrier == "" && subject != "" {
		if m := subjectSenderRe.FindStringSubmatch(subject); m != nil {
			sniffed.Carrier = strings.ToUpper(strings.TrimSpace(m[1]))
		}
	}

	if sniffed.Carrier == "TELXIUS" {
		sniffed.InternalID = telxiusTicketRe.FindString(raw)
		sniffed.ServiceIDs = telxiusCircuit.FindAllString(raw, -1)
	} else {
		sniffed.InternalID = genericTicketRe.FindString(raw)
		sniffed.ServiceIDs = numericToken.FindAllString(raw, -1)
	}

	if strings.Contains(strings.ToUpper(subject), "EMERGENCY") {
		sniffed.TaskType = "Emergencia"
	}
	return sniffed
}

// CarrierFromBody pulls the carrier from an explicit "Carrier:" line in the
// cleaned body, the last resort when neither the caller nor the headers
// named one.
func CarrierFromBody(body string) string {
	return firstSubmatch(carrierLineRe, body)
}

func carrierFromSender(sender string) string {
	for _, p := range carrierSenderPatterns {
		if p.re.MatchString(sender) {
			return p.name
		}
	}
	if m := emailAddrRe.FindStringSubmatch(sender); m != nil {
		return strings.ToUpper(m[1])
	}
	return ""
}

func firstSubmatch(re *regexp.Regexp, s string) string {
	if m := re.FindStringSubmatch(s); m != nil {
		return strings.TrimSpace(m[1])
	}
	return ""
}
