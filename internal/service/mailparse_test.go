package service

import (
	"reflect"
	"testing"
)

func TestCleanEmailBody(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{
			name: "strips blank lines",
			body: "Estimado cliente,\n\n\nVentana de mantenimiento\n",
			want: "Estimado cliente,\nVentana de mantenimiento",
		},
		{
			name: "truncates at disclaimer",
			body: "Inicio: 2024-03-10 02:00\nFin: 2024-03-10 06:00\nDISCLAIMER: this email is private\nunrelated tail",
			want: "Inicio: 2024-03-10 02:00\nFin: 2024-03-10 06:00",
		},
		{
			name: "truncates at spanish legal notice",
			body: "contenido util\nAviso Legal: el contenido de este mensaje...\nmas texto",
			want: "contenido util",
		},
		{
			name: "truncates at confidencial",
			body: "linea 1\nEste correo es CONFIDENCIAL\nlinea 3",
			want: "linea 1",
		},
		{
			name: "empty input",
			body: "",
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CleanEmailBody(tt.body); got != tt.want {
				t.Errorf("CleanEmailBody() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestExtractFast(t *testing.T) {
	body := "Les informamos de una ventana de mantenimiento.\n" +
		"Inicio: 2024-03-10 02:00\n" +
		"Fin: 2024-03-10 06:00\n" +
		"Servicios afectados: CRT-000123, CRT-000456\n"

	win := ExtractFast(body)
	if win == nil {
		t.Fatal("ExtractFast() = nil, want a window")
	}
	if win.Start != "2024-03-10 02:00" {
		t.Errorf("Start = %q", win.Start)
	}
	if win.End != "2024-03-10 06:00" {
		t.Errorf("End = %q", win.End)
	}
	if win.TaskType != "Mantenimiento" {
		t.Errorf("TaskType = %q, want Mantenimiento", win.TaskType)
	}
	if want := []string{"CRT-000123", "CRT-000456"}; !reflect.DeepEqual(win.IDs, want) {
		t.Errorf("IDs = %v, want %v", win.IDs, want)
	}
}

func TestExtractFastMissingFields(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"no start", "Fin: 2024-03-10 06:00\nServicios: CRT-000123"},
		{"no end", "Inicio: 2024-03-10 02:00\nServicios: CRT-000123"},
		{"no services", "Inicio: 2024-03-10 02:00\nFin: 2024-03-10 06:00"},
		{"empty body", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if win := ExtractFast(tt.body); win != nil {
				t.Errorf("ExtractFast() = %+v, want nil", win)
			}
		})
	}
}

func TestSniffHeadersTelxius(t *testing.T) {
	raw := "From: noc@telxius.com\n" +
		"Subject: Scheduled maintenance SWX1234567\n" +
		"Affected circuits: CRT-000123 and CRT-000456\n"

	sniffed := SniffHeaders(raw)
	if sniffed.Carrier != "TELXIUS" {
		t.Errorf("Carrier = %q, want TELXIUS", sniffed.Carrier)
	}
	if sniffed.InternalID != "SWX1234567" {
		t.Errorf("InternalID = %q, want SWX1234567", sniffed.InternalID)
	}
	if want := []string{"CRT-000123", "CRT-000456"}; !reflect.DeepEqual(sniffed.ServiceIDs, want) {
		t.Errorf("ServiceIDs = %v, want %v", sniffed.ServiceIDs, want)
	}
	if sniffed.TaskType != "Programada" {
		t.Errorf("TaskType = %q, want Programada", sniffed.TaskType)
	}
}

func TestSniffHeadersGenericCarrier(t *testing.T) {
	raw := "From: soporte@acmenet.com\n" +
		"Subject: EMERGENCY maintenance IDAB123\n" +
		"servicio 1042\n"

	sniffed := SniffHeaders(raw)
	if sniffed.Carrier != "SOPORTE" {
		t.Errorf("Carrier = %q, want SOPORTE", sniffed.Carrier)
	}
	if sniffed.InternalID != "IDAB123" {
		t.Errorf("InternalID = %q, want IDAB123", sniffed.InternalID)
	}
	if sniffed.TaskType != "Emergencia" {
		t.Errorf("TaskType = %q, want Emergencia", sniffed.TaskType)
	}
}

func TestSniffHeadersSubjectFallback(t *testing.T) {
	raw := "Subject: PROVEEDORX - METROTEL mantenimiento programado\ncuerpo\n"

	sniffed := SniffHeaders(raw)
	if sniffed.Carrier != "PROVEEDORX" {
		t.Errorf("Carrier = %q, want PROVEEDORX", sniffed.Carrier)
	}
}
