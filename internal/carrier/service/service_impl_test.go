package service_test

import (
	"context"
	"testing"

	"github.com/smallbiznis/revbox/internal/carrier/domain"
	"github.com/smallbiznis/revbox/internal/carrier/repository"
	"github.com/smallbiznis/revbox/internal/carrier/service"
	"github.com/smallbiznis/revbox/internal/extraction"
	"github.com/smallbiznis/revbox/internal/providers/llm"
	"github.com/smallbiznis/revbox/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type stubSuggester struct {
	enabled bool
	fields  []string
	carrier string
}

func (s *stubSuggester) Enabled() bool { return s.enabled }

func (s *stubSuggester) SuggestMappings(_ context.Context, carrierName string, fields []string) (llm.Suggestion, error) {
	s.carrier = carrierName
	s.fields = fields
	return llm.Suggestion{
		Mappings:    map[string]string{"Policy Number": "policy_number"},
		PrimaryKeys: []string{"policy_number"},
	}, nil
}

func newService(t *testing.T, suggester llm.MappingSuggester) domain.Service {
	t.Helper()
	return service.New(service.Params{
		DB:        testutil.OpenDB(t, &domain.Carrier{}),
		Log:       zaptest.NewLogger(t),
		GenID:     testutil.Node(t),
		Clock:     testutil.Clock(),
		Repo:      repository.Provide(),
		Suggester: suggester,
	})
}

func acme() domain.CreateCarrierRequest {
	return domain.CreateCarrierRequest{
		Name:             "Acme Life",
		Code:             "ACME",
		FieldMappings:    map[string]string{"Policy Number": "policy_number", "Premium": "amount"},
		PrimaryKeyFields: []string{"policy_number", "policy_number", " "},
	}
}

func TestCreateAndGet(t *testing.T) {
	ctx := context.Background()
	svc := newService(t, nil)

	created, err := svc.Create(ctx, acme())
	require.NoError(t, err)
	assert.NotZero(t, created.ID)
	assert.Equal(t, domain.FileTypeAuto, created.FileType)
	assert.Equal(t, []string{"policy_number"}, created.PrimaryKeys())

	got, err := svc.Get(ctx, created.ID.String())
	require.NoError(t, err)
	assert.Equal(t, "ACME", got.Code)
	assert.Equal(t, map[string]string{"Policy Number": "policy_number", "Premium": "amount"}, got.Mappings())
	assert.Equal(t, []string{"policy_number"}, got.PrimaryKeys())
	assert.Nil(t, got.HeaderRow)
}

func TestCreateRejectsDuplicateCode(t *testing.T) {
	ctx := context.Background()
	svc := newService(t, nil)

	_, err := svc.Create(ctx, acme())
	require.NoError(t, err)

	_, err = svc.Create(ctx, acme())
	assert.ErrorIs(t, err, domain.ErrCodeExists)
}

func TestCreateValidation(t *testing.T) {
	ctx := context.Background()
	svc := newService(t, nil)
	zero := 0

	cases := []struct {
		name string
		req  domain.CreateCarrierRequest
		want error
	}{
		{"missing name", domain.CreateCarrierRequest{Code: "X"}, domain.ErrInvalidName},
		{"missing code", domain.CreateCarrierRequest{Name: "X"}, domain.ErrInvalidCode},
		{"bad file type", domain.CreateCarrierRequest{Name: "X", Code: "X", FileType: "docx"}, domain.ErrInvalidFileType},
		{"bad header row", domain.CreateCarrierRequest{Name: "X", Code: "X", HeaderRow: &zero}, domain.ErrInvalidRowIndex},
		{"blank target", domain.CreateCarrierRequest{Name: "X", Code: "X", FieldMappings: map[string]string{"A": " "}}, domain.ErrInvalidMapping},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Create(ctx, tc.req)
			assert.ErrorIs(t, err, tc.want)
		})
	}
}

func TestGetUnknownAndInvalid(t *testing.T) {
	ctx := context.Background()
	svc := newService(t, nil)

	_, err := svc.Get(ctx, "nope")
	assert.ErrorIs(t, err, domain.ErrInvalidID)

	_, err = svc.Get(ctx, "1234567890")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	assert.ErrorIs(t, svc.Delete(ctx, "1234567890"), domain.ErrNotFound)
}

func TestUpdateAndFieldMappings(t *testing.T) {
	ctx := context.Background()
	svc := newService(t, nil)

	created, err := svc.Create(ctx, acme())
	require.NoError(t, err)

	header := 3
	req := acme()
	req.Name = "Acme Life & Annuity"
	req.HeaderRow = &header
	req.FileType = "EXCEL"
	updated, err := svc.Update(ctx, created.ID.String(), req)
	require.NoError(t, err)
	assert.Equal(t, domain.FileTypeExcel, updated.FileType)

	got, err := svc.Get(ctx, created.ID.String())
	require.NoError(t, err)
	assert.Equal(t, "Acme Life & Annuity", got.Name)
	require.NotNil(t, got.HeaderRow)
	assert.Equal(t, 3, *got.HeaderRow)

	_, err = svc.UpdateFieldMappings(ctx, created.ID.String(), domain.UpdateFieldMappingsRequest{
		FieldMappings:    map[string]string{"Policy #": "policy_number"},
		PrimaryKeyFields: []string{"policy_number", "agent_code"},
	})
	require.NoError(t, err)

	got, err = svc.Get(ctx, created.ID.String())
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"Policy #": "policy_number"}, got.Mappings())
	assert.Equal(t, []string{"policy_number", "agent_code"}, got.PrimaryKeys())
	assert.Equal(t, "Acme Life & Annuity", got.Name)
}

func TestUpdateCodeCollision(t *testing.T) {
	ctx := context.Background()
	svc := newService(t, nil)

	_, err := svc.Create(ctx, acme())
	require.NoError(t, err)
	other := acme()
	other.Code = "OTHER"
	second, err := svc.Create(ctx, other)
	require.NoError(t, err)

	_, err = svc.Update(ctx, second.ID.String(), acme())
	assert.ErrorIs(t, err, domain.ErrCodeExists)
}

func TestListPaginates(t *testing.T) {
	ctx := context.Background()
	svc := newService(t, nil)

	for _, code := range []string{"A", "B", "C"} {
		req := acme()
		req.Code = code
		_, err := svc.Create(ctx, req)
		require.NoError(t, err)
	}

	first, err := svc.List(ctx, domain.ListCarrierRequest{PageSize: 2})
	require.NoError(t, err)
	require.Len(t, first.Carriers, 2)
	assert.True(t, first.HasMore)

	second, err := svc.List(ctx, domain.ListCarrierRequest{PageSize: 2, PageToken: first.NextPageToken})
	require.NoError(t, err)
	require.Len(t, second.Carriers, 1)
	assert.False(t, second.HasMore)

	filtered, err := svc.List(ctx, domain.ListCarrierRequest{Code: "B"})
	require.NoError(t, err)
	require.Len(t, filtered.Carriers, 1)
	assert.Equal(t, "B", filtered.Carriers[0].Code)
}

func TestSuggestMappings(t *testing.T) {
	ctx := context.Background()
	suggester := &stubSuggester{enabled: true}
	svc := newService(t, suggester)

	created, err := svc.Create(ctx, acme())
	require.NoError(t, err)

	got, err := svc.SuggestMappings(ctx, domain.SuggestMappingsRequest{
		CarrierID: created.ID.String(),
		Filename:  "sample.csv",
		Content:   []byte("Premium,Policy Number\n100,P1\n"),
	})
	require.NoError(t, err)
	assert.Equal(t, "policy_number", got.Mappings["Policy Number"])
	assert.Equal(t, "Acme Life", suggester.carrier)
	assert.Equal(t, []string{"Policy Number", "Premium"}, suggester.fields)

	_, err = svc.SuggestMappings(ctx, domain.SuggestMappingsRequest{
		CarrierID: created.ID.String(),
		Filename:  "sample.pdf",
	})
	assert.ErrorIs(t, err, domain.ErrSampleNotTabular)

	_, err = svc.SuggestMappings(ctx, domain.SuggestMappingsRequest{
		CarrierID: created.ID.String(),
		Filename:  "sample.docx",
	})
	assert.ErrorIs(t, err, extraction.ErrUnsupportedFileType)
}

func TestSuggestMappingsDisabled(t *testing.T) {
	ctx := context.Background()
	svc := newService(t, &stubSuggester{})

	created, err := svc.Create(ctx, acme())
	require.NoError(t, err)

	_, err = svc.SuggestMappings(ctx, domain.SuggestMappingsRequest{CarrierID: created.ID.String(), Filename: "a.csv"})
	assert.ErrorIs(t, err, domain.ErrSuggestionDisabled)
}
