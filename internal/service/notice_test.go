package service

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/ventanaops/ventana/internal/config"
	"github.com/ventanaops/ventana/internal/domain"
)

func TestNoticeGenerateRendersTemplate(t *testing.T) {
	dir := t.TempDir()
	templatePath := filepath.Join(dir, "plantilla.txt")
	if err := os.WriteFile(templatePath, []byte("{{CONTENIDO}}\n\nSaludos.\n"), 0o644); err != nil {
		t.Fatalf("write template: %v", err)
	}
	sigPath := filepath.Join(dir, "firma.txt")
	if err := os.WriteFile(sigPath, []byte("Mesa de operaciones\n"), 0o644); err != nil {
		t.Fatalf("write signature: %v", err)
	}

	n := NewNoticeService(config.NoticeConfig{
		TemplatePath:  templatePath,
		SignaturePath: sigPath,
		OutputDir:     dir,
	}, nil)

	task := &domain.ScheduledTask{
		ID:          42,
		StartAt:     time.Date(2024, 3, 10, 2, 0, 0, 0, time.UTC),
		EndAt:       time.Date(2024, 3, 10, 6, 0, 0, 0, time.UTC),
		TaskType:    domain.TaskTypeScheduled,
		Affectation: "2 horas",
		Description: "corte total del servicio",
	}
	services := []*domain.Service{{ID: 1, Name: "enlace uno"}, {ID: 7, Name: "enlace dos"}}

	text, path, err := n.Generate(context.Background(), "TELXIUS", task, services)
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	for _, want := range []string{
		"Carrier: TELXIUS",
		"Inicio: 2024-03-10 02:00",
		"Fin: 2024-03-10 06:00",
		"Tipo de tarea: Programada",
		"Tiempo de afectación: 2 horas",
		"Descripción: corte total del servicio",
		"Servicios afectados: 1, 7",
	} {
		if !strings.Contains(text, want) {
			t.Errorf("notice text missing %q:\n%s", want, text)
		}
	}
	if strings.Contains(text, "{{CONTENIDO}}") {
		t.Error("template marker survived rendering")
	}
	if !strings.Contains(text, "Mesa de operaciones") {
		t.Error("signature not appended")
	}

	written, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read notice file: %v", err)
	}
	if string(written) != text {
		t.Error("file content differs from returned text")
	}
}

func TestNoticeGenerateOmitsEmptyFields(t *testing.T) {
	dir := t.TempDir()
	n := NewNoticeService(config.NoticeConfig{OutputDir: dir}, nil)

	task := &domain.ScheduledTask{
		ID:       3,
		StartAt:  time.Date(2024, 3, 10, 2, 0, 0, 0, time.UTC),
		EndAt:    time.Date(2024, 3, 10, 6, 0, 0, 0, time.UTC),
		TaskType: domain.TaskTypeScheduled,
	}

	text, _, err := n.Generate(context.Background(), "", task, nil)
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	for _, absent := range []string{"Carrier:", "Tiempo de afectación:", "Descripción:"} {
		if strings.Contains(text, absent) {
			t.Errorf("notice text carries %q for an empty field:\n%s", absent, text)
		}
	}
	if !strings.Contains(text, "Servicios afectados:") {
		t.Errorf("notice text missing the services line:\n%s", text)
	}
}

func TestNoticeGenerateRejectsTemplateWithoutMarker(t *testing.T) {
	dir := t.TempDir()
	templatePath := filepath.Join(dir, "plantilla.txt")
	if err := os.WriteFile(templatePath, []byte("sin marcador\n"), 0o644); err != nil {
		t.Fatalf("write template: %v", err)
	}

	n := NewNoticeService(config.NoticeConfig{TemplatePath: templatePath, OutputDir: dir}, nil)

	task := &domain.ScheduledTask{ID: 1, StartAt: time.Now(), EndAt: time.Now().Add(time.Hour)}
	if _, _, err := n.Generate(context.Background(), "TELXIUS", task, nil); err == nil {
		t.Fatal("Generate() accepted a template without the content marker")
	}
}
