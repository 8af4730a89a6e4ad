package identify

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/sproutsage/pkg/adapter"
	"github.com/m-mizutani/sproutsage/pkg/model"
	"github.com/m-mizutani/sproutsage/pkg/repository"
	"github.com/m-mizutani/sproutsage/pkg/utils/logging"
	"google.golang.org/genai"
)

const identifyPrompt = "Identify this plant and provide comprehensive care details. Return exactly in the requested JSON format."

// UseCase identifies plants from photos and records each result
type UseCase struct {
	gemini         adapter.Gemini
	history        *repository.History
	identification *repository.Identification
	schema         *jsonschema.Resolved
	responseSchema *genai.Schema
}

// New creates a new identify UseCase instance
func New(gemini adapter.Gemini, history *repository.History, identification *repository.Identification) (*UseCase, error) {
	schema := careInfoSchema()

	resolved, err := schema.Resolve(&jsonschema.ResolveOptions{})
	if err != nil {
		return nil, goerr.Wrap(err, "failed to resolve care info schema")
	}

	responseSchema, err := convertJSONSchemaToGenai(schema)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to convert care info schema")
	}
	responseSchema.PropertyOrdering = append(append([]string{}, careInfoFields...), "potentialProblems")

	return &UseCase{
		gemini:         gemini,
		history:        history,
		identification: identification,
		schema:         resolved,
		responseSchema: responseSchema,
	}, nil
}

// Identify sends the photo to the gateway and returns its care guide. On
// success the result is added to history and becomes the current
// identification. Every gateway or schema failure wraps model.ErrIdentification.
func (uc *UseCase) Identify(ctx context.Context, img *Image) (*model.CareInfo, error) {
	if img == nil || len(img.Data) == 0 {
		return nil, goerr.Wrap(model.ErrValidation, "image is empty")
	}

	logger := logging.From(ctx)

	// The photo is kept before the call so an interrupted identification can
	// be retried with the same image.
	if err := uc.identification.Set(ctx, img.DataURI(), nil); err != nil {
		logger.Warn("failed to keep current image", "error", err)
	}

	contents := []*genai.Content{
		genai.NewContentFromParts([]*genai.Part{
			genai.NewPartFromBytes(img.Data, img.MIMEType),
			genai.NewPartFromText(identifyPrompt),
		}, genai.RoleUser),
	}
	config := &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		ResponseSchema:   uc.responseSchema,
	}

	resp, err := uc.gemini.GenerateContent(ctx, contents, config)
	if err != nil {
		return nil, goerr.Wrap(model.ErrIdentification, "failed to identify plant", goerr.V("error", err.Error()))
	}

	info, err := uc.decode(resp)
	if err != nil {
		return nil, err
	}

	if _, err := uc.history.Add(ctx, *info, img.DataURI()); err != nil {
		logger.Warn("failed to record identification in history", "error", err)
	}
	if err := uc.identification.Set(ctx, img.DataURI(), info); err != nil {
		logger.Warn("failed to keep current identification", "error", err)
	}

	logger.Info("plant identified", "common_name", info.CommonName, "scientific_name", info.ScientificName)
	return info, nil
}

// decode validates the response against the care info schema before building
// a CareInfo
func (uc *UseCase) decode(resp *genai.GenerateContentResponse) (*model.CareInfo, error) {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return nil, goerr.Wrap(model.ErrIdentification, "invalid response structure from gemini")
	}

	var raw strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if part != nil {
			raw.WriteString(part.Text)
		}
	}
	rawJSON := raw.String()

	var instance map[string]any
	if err := json.Unmarshal([]byte(rawJSON), &instance); err != nil {
		return nil, goerr.Wrap(model.ErrIdentification, "response is not a JSON object", goerr.V("json", rawJSON))
	}
	if err := uc.schema.Validate(instance); err != nil {
		return nil, goerr.Wrap(model.ErrIdentification, "response does not match care info schema",
			goerr.V("error", err.Error()), goerr.V("json", rawJSON))
	}

	var info model.CareInfo
	if err := json.Unmarshal([]byte(rawJSON), &info); err != nil {
		return nil, goerr.Wrap(model.ErrIdentification, "failed to decode care info", goerr.V("json", rawJSON))
	}
	if err := info.Validate(); err != nil {
		return nil, goerr.Wrap(model.ErrIdentification, "care info is incomplete", goerr.V("error", err.Error()))
	}

	return &info, nil
}
