package resources

import (
	"net/http"
	"strings"
	"testing"

	"github.com/dmitrijs2005/adminconsole/internal/client/models"
	"github.com/dmitrijs2005/adminconsole/internal/client/validation"
	"github.com/dmitrijs2005/adminconsole/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLookup(t *testing.T) {
	s, err := Lookup(KindChatbot)
	require.NoError(t, err)
	assert.True(t, s.Reorderable())
	assert.Equal(t, 6, s.Capacity)

	_, err = Lookup("faq")
	assert.ErrorIs(t, err, common.ErrUnknownResource)

	assert.Len(t, Kinds(), 9)
}

func TestCategorySchemas(t *testing.T) {
	s, err := Lookup(KindService)
	require.NoError(t, err)

	assert.Equal(t, "services", s.ListKey)
	assert.Equal(t, "/category/get-service", s.Endpoints.List)
	assert.Equal(t, "/service/12", Path(s.Endpoints.Update, "12"))
	assert.Equal(t, http.MethodPost, s.Method())
	assert.Equal(t, []string{"service"}, s.SearchFields)

	p, err := Lookup(KindProduct)
	require.NoError(t, err)
	_, ok := p.Field("products")
	assert.True(t, ok)
}

func TestSliderOrderRules(t *testing.T) {
	s, err := Lookup(KindSlider)
	require.NoError(t, err)
	rules := s.Rules()["order"]

	siblings := []models.Entity{{ID: "a", Order: 1}, {ID: "b", Order: 2}}

	add := validation.Context{Mode: models.ModeAdd, Siblings: siblings}
	assert.Error(t, validation.Validate("order", "", rules, add))
	assert.EqualError(t, validation.Validate("order", "2", rules, add), "Order is already taken")
	assert.NoError(t, validation.Validate("order", "3", rules, add))
	assert.Error(t, validation.Validate("order", "9", rules, add))

	edit := validation.Context{Mode: models.ModeEdit, OwnerID: "b", Siblings: siblings}
	assert.NoError(t, validation.Validate("order", "2", rules, edit), "keeping own slot is allowed")
}

func TestSchemaHelpers(t *testing.T) {
	s, err := Lookup(KindClient)
	require.NoError(t, err)

	assert.Equal(t, []string{"logo"}, s.FileFields())
	assert.Equal(t, http.MethodPut, s.Method())
	assert.False(t, s.Ordered())
	assert.Contains(t, s.Rules(), "website")

	b, err := Lookup(KindBrochure)
	require.NoError(t, err)
	assert.NotContains(t, b.Rules(), "file", "brochure pdf is optional")
	assert.Equal(t, "/brochure/delete-pdf/3", Path(b.Endpoints.RemoveFile, "3"))
	assert.Equal(t, "/brochure/add-brochure", Path(b.Endpoints.Update, "3"))
}

func TestOrganizationSchema(t *testing.T) {
	s, err := Lookup(KindOrganization)
	require.NoError(t, err)
	assert.Equal(t, 1, s.Capacity)
	assert.Empty(t, s.Endpoints.Delete)
	assert.Equal(t, "companyname", s.WireName("companyName"))
	assert.Equal(t, "image", s.WireName("logo"))
	assert.Equal(t, "email", s.WireName("email"))

	add := validation.Context{Mode: models.ModeAdd}
	rules := s.Rules()
	assert.EqualError(t, validation.Validate("email", "ops@", rules["email"], add), "Enter a valid email address")
	assert.EqualError(t, validation.Validate("phoneNumber", "12345", rules["phoneNumber"], add), "Phone number must be 10-14 digits")
	assert.NoError(t, validation.Validate("phoneNumber", "+911234567890", rules["phoneNumber"], add))
	assert.EqualError(t, validation.Validate("logo", "", rules["logo"], add), "Image is required")
}

func TestTooltipSchema(t *testing.T) {
	s, err := Lookup(KindTooltip)
	require.NoError(t, err)
	assert.Equal(t, "fieldType", s.Key)
	assert.Equal(t, "/tooltips/view-tooltip/email", Path(s.Endpoints.Get, "email"))
	assert.Equal(t, http.MethodPost, s.Method())

	rules := s.Rules()
	vc := validation.Context{Mode: models.ModeAdd}
	assert.NoError(t, validation.Validate("fieldType", "lineOfBusiness", rules["fieldType"], vc))
	assert.EqualError(t, validation.Validate("fieldType", "fax", rules["fieldType"], vc), "Unknown form field")
	assert.EqualError(t, validation.Validate("content", " ", rules["content"], vc), "Content is required")
	assert.Error(t, validation.Validate("content", strings.Repeat("x", 201), rules["content"], vc))
	assert.NoError(t, validation.Validate("title", "", rules["title"], vc), "title is optional")
}
