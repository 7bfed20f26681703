package service

import (
	"context"
	"regexp"
	"strconv"
	"strings"

	"github.com/ventanaops/ventana/internal/domain"
	"github.com/ventanaops/ventana/internal/logger"
)

// ServiceCatalog is the slice of the service repository the resolver needs.
type ServiceCatalog interface {
	GetByID(ctx context.Context, id uint) (*domain.Service, error)
	GetByCarrierCode(ctx context.Context, code string) (*domain.Service, error)
}

// Resolution is the outcome of mapping extracted identifiers to the service
// catalog. Matched preserves the order identifiers appeared in; Pending
// holds the identifiers no catalog entry answered to.
type Resolution struct {
	Matched   []*domain.Service
	Pending   []string
	Discarded []string
}

// Resolver filters extracted identifiers by carrier conventions and resolves
// the survivors against the service catalog.
type Resolver struct {
	catalog ServiceCatalog
}

func NewResolver(catalog ServiceCatalog) *Resolver {
	return &Resolver{catalog: catalog}
}

var (
	pureDigitsRe = regexp.MustCompile(`^\d+$`)
	nonDigitsRe  = regexp.MustCompile(`\D`)
)

// FilterIdentifiers drops tokens that cannot be service identifiers for the
// given carrier. TELXIUS only ever references circuits as CRT-nnnnnn; for
// other carriers, four-digit tokens (years, times) and short numeric noise
// are discarded.
func FilterIdentifiers(carrier string, ids []string) (kept, discarded []string) {
	for _, id := range ids {
		token := strings.TrimSpace(id)
		if token == "" {
			continue
		}
		if strings.EqualFold(carrier, "TELXIUS") {
			if telxiusCircuit.MatchString(token) {
				kept = append(kept, token)
			} else {
				discarded = append(discarded, token)
			}
			continue
		}
		if pureDigitsRe.MatchString(token) && (len(token) == 4 || len(token) < 6) {
			discarded = append(discarded, token)
			continue
		}
		kept = append(kept, token)
	}
	return kept, discarded
}

// Resolve maps identifiers onto catalog services. Each identifier is tried
// as an operations id when numeric, then as a verbatim carrier code, then
// with everything but digits stripped; identifiers no variant resolves end
// up pending. Output order follows input order.
func (r *Resolver) Resolve(ctx context.Context, carrier string, ids []string) (*Resolution, error) {
	kept, discarded := FilterIdentifiers(carrier, ids)
	res := &Resolution{Discarded: discarded}

	if len(discarded) > 0 {
		logger.With(logger.Fields{
			logger.FieldCarrier: carrier,
			logger.FieldCount:   len(discarded),
		}).Info(ctx, "discarded implausible identifiers: %s", strings.Join(discarded, ","))
	}

	for _, id := range kept {
		svc, err := r.resolveOne(ctx, id)
		if err != nil {
			return nil, err
		}
		if svc != nil {
			res.Matched = append(res.Matched, svc)
		} else {
			res.Pending = append(res.Pending, id)
		}
	}
	return res, nil
}

func (r *Resolver) resolveOne(ctx context.Context, id string) (*domain.Service, error) {
	if svc, err := r.lookup(ctx, id); svc != nil || err != nil {
		return svc, err
	}
	stripped := nonDigitsRe.ReplaceAllString(id, "")
	if stripped != "" && stripped != id {
		return r.lookup(ctx, stripped)
	}
	return nil, nil
}

func (r *Resolver) lookup(ctx context.Context, id string) (*domain.Service, error) {
	if n, err := strconv.ParseUint(id, 10, 32); err == nil {
		svc, err := r.catalog.GetByID(ctx, uint(n))
		if err != nil {
			return nil, err
		}
		if svc != nil {
			return svc, nil
		}
	}
	return r.catalog.GetByCarrierCode(ctx, id)
}
