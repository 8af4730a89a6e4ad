package identify_test

import (
	"context"
	"encoding/base64"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/m-mizutani/sproutsage/pkg/adapter"
	"github.com/m-mizutani/sproutsage/pkg/model"
	"github.com/m-mizutani/sproutsage/pkg/repository"
	"github.com/m-mizutani/sproutsage/pkg/store"
	"github.com/m-mizutani/sproutsage/pkg/usecase/identify"
	"google.golang.org/genai"
)

type mockGemini struct {
	adapter.Gemini
	generateFunc func(ctx context.Context, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

func (m *mockGemini) GenerateContent(ctx context.Context, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	return m.generateFunc(ctx, contents, config)
}

func textResponse(text string) *genai.GenerateContentResponse {
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{
			{
				Content: &genai.Content{
					Role:  genai.RoleModel,
					Parts: []*genai.Part{{Text: text}},
				},
			},
		},
	}
}

const monsteraJSON = `{
	"commonName": "Monstera",
	"scientificName": "Monstera deliciosa",
	"description": "A climbing aroid with split leaves.",
	"watering": "When the top 5cm of soil is dry",
	"light": "Bright indirect",
	"soil": "Chunky aroid mix",
	"temperature": "18-30°C",
	"humidity": "High",
	"potentialProblems": ["Yellow leaves from overwatering", "Spider mites"]
}`

type fixture struct {
	store          *store.Store
	history        *repository.History
	identification *repository.Identification
}

func newFixture() *fixture {
	s := store.New(adapter.NewMemoryKV(), adapter.NewMemoryKV())
	return &fixture{
		store:          s,
		history:        repository.NewHistory(s),
		identification: repository.NewIdentification(s),
	}
}

func (f *fixture) useCase(t *testing.T, gemini adapter.Gemini) *identify.UseCase {
	t.Helper()
	uc, err := identify.New(gemini, f.history, f.identification)
	gt.NoError(t, err)
	return uc
}

var photo = &identify.Image{MIMEType: "image/jpeg", Data: []byte{0xff, 0xd8, 0xff, 0xe0}}

func TestIdentify(t *testing.T) {
	ctx := context.Background()
	f := newFixture()

	var gotConfig *genai.GenerateContentConfig
	var gotContents []*genai.Content
	gemini := &mockGemini{
		generateFunc: func(ctx context.Context, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
			gotContents = contents
			gotConfig = config
			return textResponse(monsteraJSON), nil
		},
	}

	info, err := f.useCase(t, gemini).Identify(ctx, photo)
	gt.NoError(t, err)
	gt.Equal(t, info.CommonName, "Monstera")
	gt.A(t, info.PotentialProblems).Length(2)

	gt.Equal(t, gotConfig.ResponseMIMEType, "application/json")
	gt.V(t, gotConfig.ResponseSchema).NotNil()
	gt.Equal(t, gotConfig.ResponseSchema.Type, genai.TypeObject)
	gt.A(t, gotConfig.ResponseSchema.Required).Length(9)
	gt.Equal(t, gotConfig.ResponseSchema.Properties["potentialProblems"].Type, genai.TypeArray)

	gt.A(t, gotContents).Length(1)
	gt.A(t, gotContents[0].Parts).Length(2)
	gt.V(t, gotContents[0].Parts[0].InlineData).NotNil()
	gt.Equal(t, gotContents[0].Parts[0].InlineData.MIMEType, "image/jpeg")

	items := f.history.LoadAll(ctx)
	gt.A(t, items).Length(1)
	gt.Equal(t, items[0].Plant.ScientificName, "Monstera deliciosa")
	gt.Equal(t, items[0].Image, photo.DataURI())

	gt.Equal(t, f.identification.Result(ctx).CommonName, "Monstera")
	gt.Equal(t, f.identification.Image(ctx), photo.DataURI())
}

func TestIdentifyRejectsSchemaMismatch(t *testing.T) {
	testCases := map[string]string{
		"not json":           "The plant is a Monstera.",
		"missing field":      `{"commonName":"Monstera","scientificName":"Monstera deliciosa"}`,
		"empty problems":     `{"commonName":"a","scientificName":"b","description":"c","watering":"d","light":"e","soil":"f","temperature":"g","humidity":"h","potentialProblems":[]}`,
		"wrong problem type": `{"commonName":"a","scientificName":"b","description":"c","watering":"d","light":"e","soil":"f","temperature":"g","humidity":"h","potentialProblems":"none"}`,
		"empty name":         `{"commonName":"","scientificName":"b","description":"c","watering":"d","light":"e","soil":"f","temperature":"g","humidity":"h","potentialProblems":["x"]}`,
	}

	for name, body := range testCases {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			f := newFixture()
			gemini := &mockGemini{
				generateFunc: func(ctx context.Context, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
					return textResponse(body), nil
				},
			}

			_, err := f.useCase(t, gemini).Identify(ctx, photo)
			gt.True(t, errors.Is(err, model.ErrGateway))
			gt.Equal(t, model.UserMessage(err), "identification failed, retry with clearer photo.")
			gt.A(t, f.history.LoadAll(ctx)).Length(0)
			gt.V(t, f.identification.Result(ctx)).Nil()
		})
	}
}

func TestIdentifyGatewayError(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	gemini := &mockGemini{
		generateFunc: func(ctx context.Context, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
			return nil, errors.New("quota exceeded")
		},
	}

	_, err := f.useCase(t, gemini).Identify(ctx, photo)
	gt.True(t, errors.Is(err, model.ErrGateway))
	gt.True(t, errors.Is(err, model.ErrIdentification))
	gt.False(t, errors.Is(err, model.ErrChatReply))

	// the photo is kept so the user can retry
	gt.Equal(t, f.identification.Image(ctx), photo.DataURI())

	_, err = f.useCase(t, gemini).Identify(ctx, nil)
	gt.True(t, errors.Is(err, model.ErrValidation))
}

func TestParseImage(t *testing.T) {
	raw := base64.StdEncoding.EncodeToString([]byte("jpeg-bytes"))

	img, err := identify.ParseImage(raw)
	gt.NoError(t, err)
	gt.Equal(t, img.MIMEType, "image/jpeg")
	gt.Equal(t, string(img.Data), "jpeg-bytes")

	img, err = identify.ParseImage("data:image/png;base64," + raw)
	gt.NoError(t, err)
	gt.Equal(t, img.MIMEType, "image/png")
	gt.Equal(t, img.DataURI(), "data:image/png;base64,"+raw)

	for _, input := range []string{"", "   ", "data:image/png;base64", "data:image/png," + raw, "!!not-base64!!"} {
		_, err := identify.ParseImage(input)
		gt.True(t, errors.Is(err, model.ErrValidation))
	}
}

func TestLoadImage(t *testing.T) {
	dir := t.TempDir()

	pngPath := filepath.Join(dir, "leaf.png")
	png := append([]byte("\x89PNG\r\n\x1a\n"), make([]byte, 32)...)
	gt.NoError(t, os.WriteFile(pngPath, png, 0600))

	img, err := identify.LoadImage(pngPath)
	gt.NoError(t, err)
	gt.Equal(t, img.MIMEType, "image/png")
	gt.S(t, img.DataURI()).Contains("data:image/png;base64,")

	textPath := filepath.Join(dir, "notes.txt")
	gt.NoError(t, os.WriteFile(textPath, []byte("water on sundays"), 0600))
	_, err = identify.LoadImage(textPath)
	gt.True(t, errors.Is(err, model.ErrValidation))

	_, err = identify.LoadImage(filepath.Join(dir, "missing.jpg"))
	gt.True(t, errors.Is(err, model.ErrNotFound))
}
