package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"fleetledger/documents"
	"fleetledger/models"
	"fleetledger/repository"
	"fleetledger/storage"
	"fleetledger/utils"
)

// ErrStorageUnavailable is returned for uploads when no object storage is configured.
var ErrStorageUnavailable = errors.New("document storage is not configured")

type DocumentService struct {
	stores    *repository.Stores
	trips     *TripService
	storage   ObjectStorage
	extractor documents.TextExtractor
	maxDim    uint
	maxBytes  int64
	logger    *slog.Logger
}

func NewDocumentService(stores *repository.Stores, trips *TripService, opts Options, logger *slog.Logger) *DocumentService {
	return &DocumentService{
		stores:    stores,
		trips:     trips,
		storage:   opts.Storage,
		extractor: opts.Extractor,
		maxDim:    opts.ImageMaxDimension,
		maxBytes:  opts.MaxUploadBytes,
		logger:    logger,
	}
}

// Upload is a file sent for an entity. Type and ValidityDate are optional;
// when missing they are guessed from the filename and content.
type Upload struct {
	Owner        models.DocumentOwner
	OwnerID      string
	Filename     string
	Data         []byte
	Type         string
	ValidityDate *time.Time
}

// docAccess reads and writes the documents array of one kind of owner.
type docAccess struct {
	name   func(ctx context.Context, userID, id string) (string, bool, error)
	attach func(ctx context.Context, userID, id string, doc models.Document) error
	detach func(ctx context.Context, userID, id, url string) (bool, error)
	list   func(ctx context.Context, userID string) ([]ownedDocs, error)
}

type ownedDocs struct {
	id, name string
	docs     []models.Document
}

// masterAccess builds docAccess for a master record collection. Documents
// are pushed and pulled in place so parallel uploads do not overwrite
// each other.
func masterAccess[T any](store repository.Store[T], idField string, ident func(*T) (string, string), docs func(*T) *[]models.Document) docAccess {
	return docAccess{
		name: func(ctx context.Context, userID, id string) (string, bool, error) {
			rec, err := store.FindOne(ctx, userID, id)
			if err != nil || rec == nil {
				return "", false, err
			}
			_, name := ident(rec)
			return name, true, nil
		},
		attach: func(ctx context.Context, userID, id string, doc models.Document) error {
			err := store.Push(ctx, userID, id, "documents", doc)
			if errors.Is(err, repository.ErrNotFound) {
				return ErrNotFound
			}
			return err
		},
		detach: func(ctx context.Context, userID, id, url string) (bool, error) {
			n, err := store.Pull(ctx, userID, repository.Filter{idField: id}, "documents", repository.Filter{"url": url})
			return n > 0, err
		},
		list: func(ctx context.Context, userID string) ([]ownedDocs, error) {
			recs, err := store.Find(ctx, userID, nil)
			if err != nil {
				return nil, err
			}
			out := make([]ownedDocs, 0, len(recs))
			for _, rec := range recs {
				id, name := ident(rec)
				out = append(out, ownedDocs{id: id, name: name, docs: *docs(rec)})
			}
			return out, nil
		},
	}
}

func (s *DocumentService) access(owner models.DocumentOwner) (docAccess, error) {
	switch owner {
	case models.OwnerTruck:
		return masterAccess(s.stores.Trucks, "truckId",
			func(t *models.Truck) (string, string) { return t.TruckID, t.TruckNo },
			func(t *models.Truck) *[]models.Document { return &t.Documents }), nil
	case models.OwnerDriver:
		return masterAccess(s.stores.Drivers, "driverId",
			func(d *models.Driver) (string, string) { return d.DriverID, d.Name },
			func(d *models.Driver) *[]models.Document { return &d.Documents }), nil
	case models.OwnerParty:
		return masterAccess(s.stores.Parties, "partyId",
			func(p *models.Party) (string, string) { return p.PartyID, p.Name },
			func(p *models.Party) *[]models.Document { return &p.Documents }), nil
	case models.OwnerSupplier:
		return masterAccess(s.stores.Suppliers, "supplierId",
			func(p *models.Supplier) (string, string) { return p.SupplierID, p.Name },
			func(p *models.Supplier) *[]models.Document { return &p.Documents }), nil
	case models.OwnerTrip:
		acc := masterAccess(s.stores.Trips, "tripId",
			func(t *models.Trip) (string, string) {
				return t.TripID, fmt.Sprintf("%s (%s - %s)", t.Truck, t.Route.Origin, t.Route.Destination)
			},
			func(t *models.Trip) *[]models.Document { return &t.Documents })
		// trips are versioned; go through the trip service
		acc.attach = s.trips.AttachDocument
		acc.detach = s.trips.DetachDocument
		return acc, nil
	}
	return docAccess{}, invalid("unknown document owner %q", owner)
}

func withoutDocument(docs []models.Document, url string) ([]models.Document, bool) {
	kept := make([]models.Document, 0, len(docs))
	found := false
	for _, d := range docs {
		if d.URL == url {
			found = true
			continue
		}
		kept = append(kept, d)
	}
	return kept, found
}

// Upload stores a PDF or image for an entity and attaches its metadata.
// Large images are downscaled before upload.
func (s *DocumentService) Upload(ctx context.Context, userID string, up Upload) (*models.Document, error) {
	if s.storage == nil {
		return nil, ErrStorageUnavailable
	}
	acc, err := s.access(up.Owner)
	if err != nil {
		return nil, err
	}
	if len(up.Data) == 0 {
		return nil, invalid("empty file")
	}
	if s.maxBytes > 0 && int64(len(up.Data)) > s.maxBytes {
		return nil, invalid("file is larger than %d bytes", s.maxBytes)
	}
	contentType, ext, ok := storage.DetectType(up.Data)
	if !ok {
		return nil, invalid("only PDF, JPEG and PNG files are accepted")
	}
	if _, exists, err := acc.name(ctx, userID, up.OwnerID); err != nil {
		return nil, err
	} else if !exists {
		return nil, notFound(string(up.Owner), up.OwnerID)
	}

	doc := models.Document{
		Filename:     up.Filename,
		Type:         up.Type,
		ValidityDate: up.ValidityDate,
		UploadedDate: timeNow(),
	}
	if doc.Type == "" || doc.ValidityDate == nil {
		s.guess(ctx, &doc, contentType, up.Data)
	}

	body, contentType, err := storage.Shrink(up.Data, contentType, s.maxDim)
	if err != nil {
		return nil, fmt.Errorf("resize image: %w", err)
	}
	if contentType == "image/jpeg" {
		ext = ".jpg"
	}
	base := strings.TrimSuffix(filepath.Base(up.Filename), filepath.Ext(up.Filename))
	if base == "" || base == "." {
		base = "document"
	}
	key := fmt.Sprintf("%s/%s/%s/%s-%s%s", userID, up.Owner, up.OwnerID, base, utils.NewID("")[:8], ext)

	doc.URL, err = s.storage.Upload(ctx, key, body, contentType)
	if err != nil {
		return nil, err
	}
	if err := acc.attach(ctx, userID, up.OwnerID, doc); err != nil {
		if derr := s.storage.Delete(ctx, doc.URL); derr != nil {
			s.logger.Warn("failed to remove orphaned upload", "url", doc.URL, "error", derr)
		}
		return nil, fmt.Errorf("attach document: %w", err)
	}
	return &doc, nil
}

// guess fills in type and validity from the filename and extracted text.
func (s *DocumentService) guess(ctx context.Context, doc *models.Document, contentType string, data []byte) {
	text := ""
	if s.extractor != nil {
		t, err := s.extractor.ExtractText(ctx, contentType, data)
		if err != nil {
			s.logger.Warn("text extraction failed", "filename", doc.Filename, "error", err)
		}
		text = t
	}
	docType, validity := documents.Classify(doc.Filename, text)
	if doc.Type == "" {
		doc.Type = docType
	}
	if doc.ValidityDate == nil {
		doc.ValidityDate = validity
	}
}

// Delete detaches the document stored at url from its owner and removes the object.
func (s *DocumentService) Delete(ctx context.Context, userID string, owner models.DocumentOwner, ownerID, url string) error {
	acc, err := s.access(owner)
	if err != nil {
		return err
	}
	found, err := acc.detach(ctx, userID, ownerID, url)
	if err != nil {
		return err
	}
	if !found {
		return notFound("document", url)
	}
	if s.storage != nil {
		if err := s.storage.Delete(ctx, url); err != nil {
			s.logger.Warn("failed to delete stored document", "url", url, "error", err)
		}
	}
	return nil
}

// List returns every document of the account with days to expiry, the
// soonest to expire first.
func (s *DocumentService) List(ctx context.Context, userID string) ([]*models.DocumentEntry, error) {
	now := timeNow()
	var out []*models.DocumentEntry
	for _, owner := range []models.DocumentOwner{models.OwnerTruck, models.OwnerDriver, models.OwnerParty, models.OwnerSupplier, models.OwnerTrip} {
		acc, err := s.access(owner)
		if err != nil {
			return nil, err
		}
		owned, err := acc.list(ctx, userID)
		if err != nil {
			return nil, err
		}
		for _, o := range owned {
			for _, d := range o.docs {
				out = append(out, &models.DocumentEntry{
					Document:     d,
					Owner:        owner,
					OwnerID:      o.id,
					OwnerName:    o.name,
					DaysToExpiry: documents.DaysToExpiry(d.ValidityDate, now),
				})
			}
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i].DaysToExpiry, out[j].DaysToExpiry
		switch {
		case a == nil:
			return false
		case b == nil:
			return true
		}
		return *a < *b
	})
	if out == nil {
		out = []*models.DocumentEntry{}
	}
	return out, nil
}

// Expiring returns documents that expire within days (including expired ones).
func (s *DocumentService) Expiring(ctx context.Context, userID string, days int) ([]*models.DocumentEntry, error) {
	all, err := s.List(ctx, userID)
	if err != nil {
		return nil, err
	}
	out := []*models.DocumentEntry{}
	for _, d := range all {
		if d.DaysToExpiry != nil && *d.DaysToExpiry <= days {
			out = append(out, d)
		}
	}
	return out, nil
}
