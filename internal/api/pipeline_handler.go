package api

import (
	"encoding/json"
	"net/http"

	"github.com/conveyor-ci/conveyor/internal/pipeline"
)

// ListPipelines возвращает список всех pipelines.
// GET /api/v1/pipelines
func (h *Handler) ListPipelines(w http.ResponseWriter, r *http.Request) {
	pipelines, err := h.pipelineRepo.List(r.Context())
	if HandleRepoError(w, h.logger, err, "") {
		return
	}

	result := make([]PipelineResponse, len(pipelines))
	for i, p := range pipelines {
		result[i] = PipelineFromDomain(p)
		// Список — без исходников, source отдаёт GET по имени
		result[i].Source = ""
	}

	List(w, result, len(result))
}

// ApplyPipeline создаёт pipeline или обновляет существующий,
// поднимая версию. Имя берётся из YAML-определения.
// POST /api/v1/pipelines
func (h *Handler) ApplyPipeline(w http.ResponseWriter, r *http.Request) {
	var req ApplyPipelineRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		BadRequest(w, "invalid request body")
		return
	}

	if req.Source == "" {
		BadRequest(w, "source is required")
		return
	}

	// Определение должно компилироваться целиком: матрица, исключения,
	// шаги, плейсхолдеры. Битый pipeline не попадает в базу.
	spec, err := pipeline.Parse([]byte(req.Source))
	if err != nil {
		BadRequest(w, err.Error())
		return
	}
	if _, err := pipeline.Compile(spec, nil); err != nil {
		BadRequest(w, err.Error())
		return
	}

	p, err := h.pipelineRepo.Apply(r.Context(), spec.Name, req.Source)
	if HandleRepoError(w, h.logger, err, "") {
		return
	}

	if p.Version == 1 {
		Created(w, PipelineFromDomain(*p))
		return
	}
	Success(w, PipelineFromDomain(*p))
}

// GetPipeline возвращает pipeline по имени вместе с исходником.
// GET /api/v1/pipelines/{name}
func (h *Handler) GetPipeline(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")

	p, err := h.pipelineRepo.GetByName(r.Context(), name)
	if HandleRepoError(w, h.logger, err, "pipeline not found") {
		return
	}

	Success(w, PipelineFromDomain(*p))
}

// SetPipelineActive активирует или деактивирует pipeline.
// Деактивированный pipeline нельзя запустить; scheduler его пропускает.
// PUT /api/v1/pipelines/{name}/active
func (h *Handler) SetPipelineActive(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")

	var req SetActiveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		BadRequest(w, "invalid request body")
		return
	}

	p, err := h.pipelineRepo.GetByName(r.Context(), name)
	if HandleRepoError(w, h.logger, err, "pipeline not found") {
		return
	}

	if err := h.pipelineRepo.SetActive(r.Context(), p.ID, req.Active); err != nil {
		if HandleRepoError(w, h.logger, err, "pipeline not found") {
			return
		}
	}

	p.IsActive = req.Active
	Success(w, PipelineFromDomain(*p))
}

// DeletePipeline удаляет pipeline.
// DELETE /api/v1/pipelines/{name}
func (h *Handler) DeletePipeline(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")

	p, err := h.pipelineRepo.GetByName(r.Context(), name)
	if HandleRepoError(w, h.logger, err, "pipeline not found") {
		return
	}

	if err := h.pipelineRepo.Delete(r.Context(), p.ID); err != nil {
		if HandleRepoError(w, h.logger, err, "pipeline not found") {
			return
		}
	}

	NoContent(w)
}
