package domain

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const defaultTestDocument = `%FDF-1.2
1 0 obj
<<
/FDF
<<
/Fields
[
<<
/T (signature)
/Rect [400 50 500 100]
/FT /Sig
/Ff 1
>>
<<
/T (customerName)
/Rect [400 20 500 40]
/V (Test)
/FT /Tx
/Ff 1
>>
]
>>
>>
endobj
trailer
<<
/Root 1 0 R
>>
%%EOF`

func TestBuildFieldDefinition_DefaultPlacement(t *testing.T) {
	doc := BuildFieldDefinition(SignatureRequest{CustomerName: "Test", Placement: DefaultPlacement()})
	assert.Equal(t, defaultTestDocument, doc)
}

func TestBuildFieldDefinition_Reproducible(t *testing.T) {
	req := SignatureRequest{CustomerName: "Max Mustermann", Placement: Placement{X: 10, Y: 20, Width: 30, Height: 40}}
	assert.Equal(t, BuildFieldDefinition(req), BuildFieldDefinition(req))
}

var rectPattern = regexp.MustCompile(`/Rect \[(-?\d+) (-?\d+) (-?\d+) (-?\d+)\]`)

func TestBuildFieldDefinition_RectanglesForPlacements(t *testing.T) {
	placements := []Placement{
		{X: 0, Y: 0, Width: 0, Height: 0},
		{X: 400, Y: 50, Width: 100, Height: 50},
		{X: 12, Y: 5, Width: 300, Height: 7},
		{X: -20, Y: -40, Width: -5, Height: 1000},
	}
	for _, p := range placements {
		t.Run(fmt.Sprintf("%+v", p), func(t *testing.T) {
			doc := BuildFieldDefinition(SignatureRequest{Placement: p})

			assert.Equal(t, 2, strings.Count(doc, "/T ("))
			matches := rectPattern.FindAllStringSubmatch(doc, -1)
			require.Len(t, matches, 2)

			sig := fmt.Sprintf("/Rect [%d %d %d %d]", p.X, p.Y, p.X+p.Width, p.Y+p.Height)
			name := fmt.Sprintf("/Rect [%d %d %d %d]", p.X, p.Y-30, p.X+p.Width, p.Y-10)
			assert.Equal(t, sig, matches[0][0])
			assert.Equal(t, name, matches[1][0])
		})
	}
}

func TestBuildFieldDefinition_DefaultCustomerName(t *testing.T) {
	doc := BuildFieldDefinition(SignatureRequest{Placement: DefaultPlacement()})
	assert.Contains(t, doc, "/V (Kunde)\n")
}

func TestBuildFieldDefinition_FieldOrderAndTypes(t *testing.T) {
	doc := BuildFieldDefinition(SignatureRequest{Placement: DefaultPlacement()})
	sig := strings.Index(doc, "/T (signature)")
	name := strings.Index(doc, "/T (customerName)")
	require.True(t, sig >= 0 && name > sig)
	assert.Contains(t, doc[sig:name], "/FT /Sig")
	assert.Contains(t, doc[name:], "/FT /Tx")
	assert.True(t, strings.HasPrefix(doc, "%FDF-1.2\n"))
	assert.True(t, strings.HasSuffix(doc, "%%EOF"))
}

func TestBuildFieldDefinition_EscapesCustomerName(t *testing.T) {
	doc := BuildFieldDefinition(SignatureRequest{
		CustomerName: `x) /FT /Btn >> << /T (evil`,
		Placement:    DefaultPlacement(),
	})
	assert.Equal(t, 2, strings.Count(doc, "<<\n/T "))
	assert.Contains(t, doc, `/V (x\) /FT /Btn >> << /T \(evil)`)
}

func TestEncodeFDFString(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Kunde", "(Kunde)"},
		{"", "()"},
		{`a\b`, `(a\\b)`},
		{"(x)", `(\(x\))`},
		{"line1\nline2\r\t", `(line1\nline2\r\t)`},
		{"Jörg", "<FEFF004A00F600720067>"},
		{"😀", "<FEFFD83DDE00>"},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, EncodeFDFString(tc.in), "input %q", tc.in)
	}
}

func TestSignatureRequestName(t *testing.T) {
	assert.Equal(t, DefaultCustomerName, SignatureRequest{}.Name())
	assert.Equal(t, "Test", SignatureRequest{CustomerName: "Test"}.Name())
}

func TestDomainErrors_AreDistinctAndWrappable(t *testing.T) {
	all := []error{ErrValidation, ErrToolInvocation, ErrIO, ErrTokenStoreNotReady, ErrInvalidAPIKey}
	for i, a := range all {
		assert.NotEmpty(t, a.Error())
		for j, b := range all {
			if i != j {
				assert.NotEqual(t, a, b)
			}
		}
		wrapped := fmt.Errorf("context: %w", a)
		assert.True(t, errors.Is(wrapped, a))
	}
}
