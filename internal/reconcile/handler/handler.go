package handler

import (
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"namerecon-service/internal/config"
	"namerecon-service/internal/fileio"
	"namerecon-service/internal/middleware"
	"namerecon-service/internal/reconcile/model"
	recSvc "namerecon-service/internal/reconcile/service"
	"namerecon-service/internal/store"
)

// Handler — HTTP-обёртка над движком. Ввод/вывод (файлы, хранилище) только здесь.
type Handler struct {
	cfg    config.Config
	match  model.MatchConfig
	store  store.Store
	logger zerolog.Logger
}

func New(cfg config.Config, st store.Store, logger zerolog.Logger) *Handler {
	return &Handler{cfg: cfg, match: cfg.MatchConfig(), store: st, logger: logger}
}

func (h *Handler) log(r *http.Request) zerolog.Logger {
	if rid := middleware.GetRequestID(r); rid != "" {
		return h.logger.With().Str("rid", rid).Logger()
	}
	return h.logger
}

// UploadMasters заменяет справочник содержимым файла (поле "file").
func (h *Handler) UploadMasters(w http.ResponseWriter, r *http.Request) {
	log := h.log(r)
	if err := r.ParseMultipartForm(h.maxMemory()); err != nil {
		http.Error(w, "bad multipart form: "+err.Error(), http.StatusBadRequest)
		return
	}
	headerRow := atoi(r.FormValue("header_row"), 1)
	rows, ok := h.readUpload(w, r, "file", headerRow)
	if !ok {
		return
	}

	masters, err := toMasters(rows, model.CatalogMapping{
		IDKey:        r.FormValue("id"),
		NameKey:      r.FormValue("name"),
		PriceKey:     r.FormValue("price"),
		MaterialsKey: r.FormValue("materials"),
		AllergensKey: r.FormValue("allergens"),
		HeaderRow:    headerRow,
	})
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := h.store.ReplaceMasters(r.Context(), masters); err != nil {
		log.Error().Err(err).Msg("replace masters")
		http.Error(w, "failed to save catalog", http.StatusInternalServerError)
		return
	}
	log.Info().Int("rows", len(rows)).Int("masters", len(masters)).Msg("catalog replaced")
	writeJSON(w, http.StatusOK, map[string]any{"count": len(masters)}, log)
}

func (h *Handler) ListMasters(w http.ResponseWriter, r *http.Request) {
	log := h.log(r)
	masters, err := h.store.Masters(r.Context())
	if err != nil {
		log.Error().Err(err).Msg("list masters")
		http.Error(w, "failed to load catalog", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, masters, log)
}

// Match сопоставляет строки загруженного файла со справочником.
func (h *Handler) Match(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	log := h.log(r)

	if err := r.ParseMultipartForm(h.maxMemory()); err != nil {
		http.Error(w, "bad multipart form: "+err.Error(), http.StatusBadRequest)
		return
	}
	m := mappingFromForm(r, "")
	rows, ok := h.readUpload(w, r, "file", m.HeaderRow)
	if !ok {
		return
	}
	items, err := toSourceItems(rows, m)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	masters, learned, ok := h.snapshot(w, r)
	if !ok {
		return
	}
	results := recSvc.MatchAll(items, masters, learned, h.match)
	summary := recSvc.Summary(results)

	writeJSON(w, http.StatusOK, map[string]any{
		"results": results,
		"summary": summary,
	}, log)

	log.Info().
		Int("items", len(items)).
		Int("masters", len(masters)).
		Int("matched", summary.Matched).
		Int("unmatched", summary.Unmatched).
		Dur("elapsed", time.Since(start)).
		Msg("match done")
}

type learnRequest struct {
	RawLabel string `json:"rawLabel"`
	MasterID string `json:"masterId"`
}

// Learn — явное подтверждение пары пользователем.
func (h *Handler) Learn(w http.ResponseWriter, r *http.Request) {
	log := h.log(r)
	var req learnRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad json: "+err.Error(), http.StatusBadRequest)
		return
	}
	masters, err := h.store.Masters(r.Context())
	if err != nil {
		log.Error().Err(err).Msg("load masters")
		http.Error(w, "failed to load catalog", http.StatusInternalServerError)
		return
	}

	err = recSvc.LearnChecked(r.Context(), h.store, masters, req.RawLabel, req.MasterID)
	switch {
	case errors.Is(err, recSvc.ErrInvalidMapping):
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	case errors.Is(err, recSvc.ErrUnknownMaster):
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
		return
	case err != nil:
		log.Error().Err(err).Msg("learn")
		http.Error(w, "failed to save mapping", http.StatusInternalServerError)
		return
	}
	log.Info().Str("raw_label", req.RawLabel).Str("master_id", req.MasterID).Msg("mapping learned")
	writeJSON(w, http.StatusOK, model.LearnedMapping{RawLabel: req.RawLabel, MasterID: req.MasterID}, log)
}

func (h *Handler) ListMappings(w http.ResponseWriter, r *http.Request) {
	log := h.log(r)
	all, err := h.store.All(r.Context())
	if err != nil {
		log.Error().Err(err).Msg("list mappings")
		http.Error(w, "failed to load mappings", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, all, log)
}

// DeleteMapping — метка в query (?rawLabel=...), в ней бывают "/".
func (h *Handler) DeleteMapping(w http.ResponseWriter, r *http.Request) {
	log := h.log(r)
	label := r.URL.Query().Get("rawLabel")
	if label == "" {
		http.Error(w, "missing rawLabel", http.StatusBadRequest)
		return
	}
	err := h.store.Delete(r.Context(), label)
	switch {
	case errors.Is(err, recSvc.ErrMappingNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	case err != nil:
		log.Error().Err(err).Msg("delete mapping")
		http.Error(w, "failed to delete mapping", http.StatusInternalServerError)
		return
	}
	log.Info().Str("raw_label", label).Msg("mapping deleted")
	w.WriteHeader(http.StatusNoContent)
}

// Reconcile: fileA — исходный документ, fileB — зарегистрированный снимок.
// Ключ сверки — исходная метка; дубли считаются по стороне B.
func (h *Handler) Reconcile(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	log := h.log(r)

	if err := r.ParseMultipartForm(h.maxMemory()); err != nil {
		http.Error(w, "bad multipart form: "+err.Error(), http.StatusBadRequest)
		return
	}
	ma := mappingFromForm(r, "a_")
	mb := mappingFromForm(r, "b_")

	rowsA, ok := h.readUpload(w, r, "fileA", ma.HeaderRow)
	if !ok {
		return
	}
	rowsB, ok := h.readUpload(w, r, "fileB", mb.HeaderRow)
	if !ok {
		return
	}
	itemsA, err := toSourceItems(rowsA, ma)
	if err != nil {
		http.Error(w, "fileA: "+err.Error(), http.StatusBadRequest)
		return
	}
	itemsB, err := toSourceItems(rowsB, mb)
	if err != nil {
		http.Error(w, "fileB: "+err.Error(), http.StatusBadRequest)
		return
	}

	masters, learned, ok := h.snapshot(w, r)
	if !ok {
		return
	}
	resA := recSvc.MatchAll(itemsA, masters, learned, h.match)
	resB := recSvc.MatchAll(itemsB, masters, learned, h.match)

	aggA := recSvc.Aggregate(resA)
	aggB := recSvc.Aggregate(resB)
	report := recSvc.Reconcile(aggA.Quantities, aggB.Quantities, aggB.Duplicates)

	log.Debug().
		Int("a_items", len(itemsA)).
		Int("b_items", len(itemsB)).
		Int("b_duplicates", len(aggB.Duplicates)).
		Msg("reconcile inputs")

	writeJSON(w, http.StatusOK, map[string]any{
		"report":   report,
		"summaryA": recSvc.Summary(resA),
		"summaryB": recSvc.Summary(resB),
	}, log)

	log.Info().
		Int("discrepancies", report.Stats.TotalDiscrepancy).
		Str("net_difference", report.Stats.NetDifference.String()).
		Dur("elapsed", time.Since(start)).
		Msg("reconcile done")
}

// snapshot — собственная копия справочника и связок на один прогон.
func (h *Handler) snapshot(w http.ResponseWriter, r *http.Request) ([]model.MasterRecord, []model.LearnedMapping, bool) {
	log := h.log(r)
	masters, err := h.store.Masters(r.Context())
	if err != nil {
		log.Error().Err(err).Msg("load masters")
		http.Error(w, "failed to load catalog", http.StatusInternalServerError)
		return nil, nil, false
	}
	learned, err := h.store.All(r.Context())
	if err != nil {
		log.Error().Err(err).Msg("load mappings")
		http.Error(w, "failed to load mappings", http.StatusInternalServerError)
		return nil, nil, false
	}
	if len(masters) == 0 {
		log.Warn().Msg("catalog is empty, every item will be unmatched")
	}
	return masters, learned, true
}

func (h *Handler) readUpload(w http.ResponseWriter, r *http.Request, field string, headerRow int) ([]map[string]string, bool) {
	f, hdr, err := r.FormFile(field)
	if err != nil {
		http.Error(w, "missing "+field+": "+err.Error(), http.StatusBadRequest)
		return nil, false
	}
	defer func(f multipart.File) { _ = f.Close() }(f)

	rows, err := fileio.ReadAnyMaps(f, hdr.Filename, headerRow)
	if err != nil {
		http.Error(w, "failed to read "+field+": "+err.Error(), http.StatusBadRequest)
		return nil, false
	}
	return rows, true
}

func (h *Handler) maxMemory() int64 {
	return int64(h.cfg.MaxUploadMB) << 20
}

func mappingFromForm(r *http.Request, prefix string) model.Mapping {
	return model.Mapping{
		NameKey:   r.FormValue(prefix + "name"),
		QtyKey:    r.FormValue(prefix + "qty"),
		TagKey:    r.FormValue(prefix + "tag_col"),
		Tag:       strings.TrimSpace(r.FormValue(prefix + "tag")),
		HeaderRow: atoi(r.FormValue(prefix+"header_row"), 1),
	}
}

func writeJSON(w http.ResponseWriter, status int, v any, log zerolog.Logger) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		log.Error().Err(err).Msg("write json")
	}
}

func atoi(s string, def int) int {
	if s == "" {
		return def
	}
	i, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || i <= 0 {
		return def
	}
	return i
}
