package catalog

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "schemefinder/pkg/domain-errors"
)

var schemeColumns = []string{"id", "name", "description", "eligibility", "link", "application_process", "documents"}

func newMock(t *testing.T) (PostgresSource, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return PostgresSource{DB: db}, mock
}

func TestPostgresSourceLoad(t *testing.T) {
	src, mock := newMock(t)

	mock.ExpectQuery(regexp.QuoteMeta(selectSchemesSQL)).WillReturnRows(
		sqlmock.NewRows(schemeColumns).
			AddRow(1,
				[]byte(`{"english":"PM Kisan Samman Nidhi","hindi":"पीएम किसान सम्मान निधि"}`),
				[]byte(`{"english":"Income support"}`),
				[]byte(`{"occupation":["farmer"],"income":{"max":100000}}`),
				"https://pmkisan.gov.in/",
				nil,
				[]byte(`{"Aadhaar card","Bank account details"}`),
			).
			AddRow(5,
				[]byte(`{"english":"National Pension Scheme"}`),
				[]byte(`{}`),
				[]byte(`{"age":{"min":18,"max":60}}`),
				nil,
				[]byte(`{"english":"Open an account online"}`),
				nil,
			),
	)
	mock.ExpectQuery(regexp.QuoteMeta(selectLocationsSQL)).WillReturnRows(
		sqlmock.NewRows([]string{"state", "districts"}).
			AddRow("Bihar", []byte(`{Patna,Gaya}`)),
	)
	mock.ExpectQuery(regexp.QuoteMeta(selectTranslationsSQL)).WillReturnRows(
		sqlmock.NewRows([]string{"locale", "key", "value"}).
			AddRow("english", "age", "Age").
			AddRow("hindi", "age", "आयु"),
	)

	c, err := Load(context.Background(), src)
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())

	require.Equal(t, 2, c.Len())
	kisan, ok := c.ByID(1)
	require.True(t, ok)
	assert.Equal(t, AllowedValues{"farmer"}, kisan.Eligibility.Occupation)
	assert.Equal(t, []string{"Aadhaar card", "Bank account details"}, kisan.Documents)
	assert.Equal(t, "https://pmkisan.gov.in/", kisan.Link)
	assert.Nil(t, kisan.ApplicationProcess)

	pension, _ := c.ByID(5)
	require.NotNil(t, pension.Eligibility.Age)
	assert.InDelta(t, 18, *pension.Eligibility.Age.Min, 0)
	assert.InDelta(t, 60, *pension.Eligibility.Age.Max, 0)
	assert.Empty(t, pension.Link)
	assert.Equal(t, "Open an account online", pension.ApplicationProcess.In(LocaleEnglish))

	assert.Equal(t, []State{{Name: "Bihar", Districts: []string{"Patna", "Gaya"}}}, c.Locations().States)
	assert.Equal(t, "आयु", c.Translations()["hindi"]["age"])
}

func TestPostgresSourceRejectsUnknownCriterion(t *testing.T) {
	src, mock := newMock(t)

	mock.ExpectQuery(regexp.QuoteMeta(selectSchemesSQL)).WillReturnRows(
		sqlmock.NewRows(schemeColumns).AddRow(1,
			[]byte(`{"english":"Local"}`), []byte(`{}`), []byte(`{"district":["Patna"]}`), nil, nil, nil),
	)

	_, err := src.Load(context.Background())
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvariantViolation))
	assert.Contains(t, err.Error(), "malformed eligibility column")
}

func TestPostgresSourceQueryFailure(t *testing.T) {
	src, mock := newMock(t)
	mock.ExpectQuery(regexp.QuoteMeta(selectSchemesSQL)).WillReturnError(errors.New("connection reset"))

	_, err := src.Load(context.Background())
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInternal))
}

func TestPostgresSourceRequiresDB(t *testing.T) {
	_, err := PostgresSource{}.Load(context.Background())
	require.Error(t, err)
}

func TestSeed(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	doc := &Document{
		Schemes: []Scheme{{
			ID:          1,
			Name:        LocalizedText{LocaleEnglish: "PM-JAY"},
			Eligibility: RuleSet{Income: &Ceiling{Max: Bound(250000)}},
		}},
		Locations:    Locations{States: []State{{Name: "Delhi", Districts: []string{"New Delhi"}}}},
		Translations: Translations{"english": {"title": "Assistant"}},
	}

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("CREATE TABLE IF NOT EXISTS schemes")).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta("TRUNCATE schemes, locations, translations")).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO schemes")).
		WithArgs(1, 0, sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO locations")).
		WithArgs(0, "Delhi", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO translations")).
		WithArgs("english", "title", "Assistant").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	require.NoError(t, Seed(context.Background(), db, doc))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSeedRollsBackOnFailure(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("CREATE TABLE IF NOT EXISTS schemes")).WillReturnError(errors.New("permission denied"))
	mock.ExpectRollback()

	err = Seed(context.Background(), db, &Document{})
	require.Error(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}
