package service

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ventanaops/ventana/internal/config"
	"github.com/ventanaops/ventana/internal/domain"
	"github.com/ventanaops/ventana/internal/logger"
	"github.com/ventanaops/ventana/internal/storage"
)

const defaultNoticeTemplate = `{{CONTENIDO}}

Quedamos atentos a cualquier consulta.
`

// NoticeService renders client-facing maintenance notices from scheduled
// tasks. The notice body is built line by line from the task fields and
// placed into the configured template at the {{CONTENIDO}} marker; the
// rendered notice is written locally and optionally archived in object
// storage.
type NoticeService struct {
	cfg   config.NoticeConfig
	store storage.Storage
}

func NewNoticeService(cfg config.NoticeConfig, store storage.Storage) *NoticeService {
	return &NoticeService{cfg: cfg, store: store}
}

// Generate renders the notice for a task and returns the text and the local
// file path it was written to.
func (n *NoticeService) Generate(ctx context.Context, carrier string, task *domain.ScheduledTask, services []*domain.Service) (string, string, error) {
	ids := make([]string, 0, len(services))
	for _, svc := range services {
		ids = append(ids, fmt.Sprint(svc.ID))
	}

	lines := []string{
		"Estimado cliente, nuestro partner nos da aviso de la siguiente tarea programada:",
	}
	if carrier != "" {
		lines = append(lines, "Carrier: "+carrier)
	}
	lines = append(lines,
		"Inicio: "+task.StartAt.Format("2006-01-02 15:04"),
		"Fin: "+task.EndAt.Format("2006-01-02 15:04"),
		"Tipo de tarea: "+task.TaskType,
	)
	if task.Affectation != "" {
		lines = append(lines, "Tiempo de afectación: "+task.Affectation)
	}
	if task.Description != "" {
		lines = append(lines, "Descripción: "+task.Description)
	}
	lines = append(lines, "Servicios afectados: "+strings.Join(ids, ", "))

	text, err := n.render(strings.Join(lines, "\n"))
	if err != nil {
		return "", "", err
	}

	path, err := n.writeLocal(task.ID, text)
	if err != nil {
		return "", "", err
	}

	if n.cfg.Archive && n.store != nil {
		key := fmt.Sprintf("notices/%s/%s.txt", time.Now().Format("2006/01"), uuid.NewString())
		if url, err := n.store.Upload(ctx, key, []byte(text), "text/plain; charset=utf-8"); err != nil {
			logger.CtxWarn(ctx, "notice archive upload failed: %v", err)
		} else {
			logger.CtxInfo(ctx, "notice archived at %s", url)
		}
	}
	return text, path, nil
}

func (n *NoticeService) render(content string) (string, error) {
	template := defaultNoticeTemplate
	if n.cfg.TemplatePath != "" {
		data, err := os.ReadFile(n.cfg.TemplatePath)
		if err != nil {
			return "", fmt.Errorf("read notice template: %w", err)
		}
		template = string(data)
	}
	if !strings.Contains(template, "{{CONTENIDO}}") {
		return "", fmt.Errorf("notice template has no {{CONTENIDO}} marker")
	}
	text := strings.ReplaceAll(template, "{{CONTENIDO}}", content)

	if n.cfg.SignaturePath != "" {
		sig, err := os.ReadFile(n.cfg.SignaturePath)
		if err != nil {
			return "", fmt.Errorf("read notice signature: %w", err)
		}
		text = text + "\n" + string(sig)
	}
	return text, nil
}

func (n *NoticeService) writeLocal(taskID uint, text string) (string, error) {
	dir := n.cfg.OutputDir
	if dir == "" {
		dir = os.TempDir()
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create notice dir: %w", err)
	}
	name := fmt.Sprintf("aviso_%d_%s.txt", taskID, time.Now().Format("20060102_150405"))
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(text), 0o644); err != nil {
		return "", fmt.Errorf("write notice: %w", err)
	}
	return path, nil
}
