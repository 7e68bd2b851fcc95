package sources

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/sheetsync/internal/common"
)

func TestPlaceholder(t *testing.T) {
	rows, err := Placeholder{}.Rows(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []map[string]any{{"field1": "value1", "field2": "value2"}}, rows)
}

func TestParseCSV(t *testing.T) {
	in := "\ufeffname, email,\nAda,ada@example.com,x\nBob,bob@example.com,y\n"
	rows, err := ParseCSV(strings.NewReader(in))
	require.NoError(t, err)
	assert.Equal(t, []map[string]any{
		{"name": "Ada", "email": "ada@example.com", "column_3": "x"},
		{"name": "Bob", "email": "bob@example.com", "column_3": "y"},
	}, rows)
}

func TestParseCSV_EmptyAndRagged(t *testing.T) {
	rows, err := ParseCSV(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, rows)

	_, err = ParseCSV(strings.NewReader("a,b\n1\n"))
	assert.ErrorIs(t, err, common.ErrDecode)
}

type fakeGetter struct {
	body string
	err  error
	in   *s3.GetObjectInput
}

func (f *fakeGetter) GetObject(_ context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	f.in = in
	if f.err != nil {
		return nil, f.err
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(strings.NewReader(f.body))}, nil
}

func withFakeClient(t *testing.T, g objectGetter) {
	t.Helper()
	origLoad, origNew := loadDefaultAWSConfig, newS3ClientFromConfig
	t.Cleanup(func() { loadDefaultAWSConfig, newS3ClientFromConfig = origLoad, origNew })

	loadDefaultAWSConfig = func(context.Context, ...func(*config.LoadOptions) error) (aws.Config, error) {
		return aws.Config{}, nil
	}
	newS3ClientFromConfig = func(aws.Config, ...func(*s3.Options)) objectGetter { return g }
}

func TestS3Sheet_Rows(t *testing.T) {
	g := &fakeGetter{body: "field1,field2\nvalue1,value2\n"}
	withFakeClient(t, g)

	src, err := NewS3Sheet(context.Background(), S3Config{Bucket: "sheets", Key: "export.csv", Region: "us-east-1", AccessKey: "k", SecretKey: "s"})
	require.NoError(t, err)

	rows, err := src.Rows(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []map[string]any{{"field1": "value1", "field2": "value2"}}, rows)
	assert.Equal(t, "sheets", aws.ToString(g.in.Bucket))
	assert.Equal(t, "export.csv", aws.ToString(g.in.Key))
}

func TestS3Sheet_Errors(t *testing.T) {
	_, err := NewS3Sheet(context.Background(), S3Config{})
	assert.ErrorIs(t, err, common.ErrValidation)

	withFakeClient(t, &fakeGetter{err: errors.New("NoSuchKey")})
	src, err := NewS3Sheet(context.Background(), S3Config{Bucket: "b", Key: "k"})
	require.NoError(t, err)

	_, err = src.Rows(context.Background())
	assert.ErrorIs(t, err, common.ErrNetwork)
}
