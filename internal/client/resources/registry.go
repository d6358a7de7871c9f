package resources

import (
	"net/http"
	"regexp"
	"strconv"

	"github.com/dmitrijs2005/adminconsole/internal/client/reorder"
	v "github.com/dmitrijs2005/adminconsole/internal/client/validation"
)

const (
	chatbotCapacity = 6
	sliderCapacity  = 8

	imageMaxBytes    = 5 << 20
	brochureMaxBytes = 20 << 20
)

var imageTypes = []string{"image/jpeg", "image/png", "image/gif"}

var phonePattern = regexp.MustCompile(`^\+?[0-9]{10,14}$`)

// TooltipFields are the contact form fields a tooltip can be attached to.
var TooltipFields = []string{"name", "email", "phoneNumber", "country", "lineOfBusiness", "products", "services", "message"}

func tooltipFields(v.Context) []string { return TooltipFields }

// freeSlots lists the slider orders still available to the draft's owner.
func freeSlots(vc v.Context) []string {
	free := reorder.FreeOrders(sliderCapacity, vc.Siblings, vc.OwnerID)
	out := make([]string, len(free))
	for i, n := range free {
		out[i] = strconv.Itoa(n)
	}
	return out
}

var registry = map[Kind]Schema{
	KindChatbot: {
		Kind:    KindChatbot,
		Title:   "Chatbot Questions",
		ListKey: "chat",
		Endpoints: Endpoints{
			List:   "/chatbot/get-all-question",
			Create: "/chatbot/create-questions",
			Update: "/chatbot/update-question/%s",
			Delete: "/chatbot/delete-question/%s",
			Move:   "/chatbot/change-order",
		},
		Order:        OrderDense,
		Capacity:     chatbotCapacity,
		SearchFields: []string{"question", "answer"},
		DefaultSort:  "order",
		Fields: []Field{
			{Name: "question", Label: "Question", Rules: []v.Rule{
				v.MinLen(5, "Question must be at least 5 characters."),
				v.Unique("This question already exists. Try a different one."),
			}},
			{Name: "answer", Label: "Answer", Rules: []v.Rule{
				v.WordCount(10, 45, "Answer should be between 10 and 45 words."),
			}},
		},
	},

	KindSlider: {
		Kind:    KindSlider,
		Title:   "Slider",
		ListKey: "slider",
		Endpoints: Endpoints{
			List:   "/slider/slider-details",
			Create: "/slider/add-slider",
			Update: "/slider/update-slider/%s",
			Delete: "/slider/delete-slider/%s",
		},
		Multipart:    true,
		Order:        OrderSlots,
		Capacity:     sliderCapacity,
		SearchFields: []string{"heading", "subheading"},
		DefaultSort:  "order",
		Fields: []Field{
			{Name: "heading", Label: "Heading", Rules: []v.Rule{
				v.MinLen(3, "Heading is required and must be at least 3 characters long"),
			}},
			{Name: "subheading", Label: "Subheading", Rules: []v.Rule{
				v.OptionalMinLen(3, "Subheading must be at least 3 characters long"),
			}},
			{Name: "tagline", Label: "Tagline", Rules: []v.Rule{
				v.MinLen(5, "Tagline is required and must be at least 5 characters long"),
			}},
			{Name: "description", Label: "Description", Rules: []v.Rule{
				v.MinLen(10, "Description is required and must be at least 10 characters long"),
			}},
			{Name: "category", Label: "Category", Rules: []v.Rule{
				v.Required("Category is required"),
			}},
			{Name: "order", Label: "Order", Rules: []v.Rule{
				v.Required("Order is required"),
				v.Integer(1, sliderCapacity, "Order must be between 1 and 8"),
				v.OneOf(freeSlots, "Order is already taken"),
			}},
			{Name: "image", Label: "Image", File: true, Accept: imageTypes, MaxBytes: imageMaxBytes, Rules: []v.Rule{
				v.FileRequired("Image is required"),
			}},
		},
	},

	KindClient: {
		Kind:    KindClient,
		Title:   "Clients",
		ListKey: "clients",
		Endpoints: Endpoints{
			List:   "/client/view-clients",
			Create: "/client/create-client",
			Update: "/client/update-client/%s",
			Delete: "/client/delete-client/%s",
		},
		Multipart:    true,
		SearchFields: []string{"name", "description"},
		DefaultSort:  "name",
		Fields: []Field{
			{Name: "name", Label: "Title", Rules: []v.Rule{
				v.Required("Title is required"),
				v.NotNumeric("Title cannot be a number"),
				v.MaxLen(20, "Title must be less than 20 characters"),
			}},
			{Name: "website", Label: "Website", Rules: []v.Rule{
				v.Required("Website is required"),
				v.MaxLen(150, "Website must be less than 150 characters"),
				v.URL("Please enter a valid website URL"),
			}},
			{Name: "description", Label: "Short Description", Rules: []v.Rule{
				v.MaxLen(36, "Short Description must be less than 36 characters"),
			}},
			{Name: "logo", Label: "Logo", File: true, Accept: imageTypes, MaxBytes: imageMaxBytes, Rules: []v.Rule{
				v.FileRequired("Image is required"),
			}},
		},
	},

	KindBrochure: {
		Kind:    KindBrochure,
		Title:   "Brochures",
		ListKey: "brochures",
		Endpoints: Endpoints{
			List:       "/brochure/get-all-brochure",
			Create:     "/brochure/add-brochure",
			Update:     "/brochure/add-brochure",
			Delete:     "/brochure/delete-brochure/%s",
			RemoveFile: "/brochure/delete-pdf/%s",
		},
		UpdateMethod:  http.MethodPost,
		UpdateSendsID: true,
		Multipart:     true,
		SearchFields:  []string{"title"},
		DefaultSort:   "title",
		Fields: []Field{
			{Name: "title", Label: "Title", Rules: []v.Rule{
				v.Required("Please enter a title."),
			}},
			{Name: "file", Label: "PDF File", File: true, Accept: []string{"application/pdf"}, MaxBytes: brochureMaxBytes},
		},
	},

	KindOrganization: {
		Kind:    KindOrganization,
		Title:   "Organization Details",
		ListKey: "organization",
		Endpoints: Endpoints{
			List:   "/organization/organization-details",
			Create: "/organization/add-organization",
			Update: "/organization/edit-organization/%s",
		},
		Multipart: true,
		// A single record: added once, then only edited.
		Capacity:     1,
		SearchFields: []string{"companyName", "email"},
		DefaultSort:  "companyName",
		Fields: []Field{
			{Name: "email", Label: "Email", Rules: []v.Rule{
				v.Required("Email is required"),
				v.Email("Enter a valid email address"),
				v.MaxLen(100, "Email must be at most 100 characters"),
			}},
			{Name: "phoneNumber", Wire: "phone", Label: "Phone", Rules: []v.Rule{
				v.Required("Phone number is required"),
				v.Pattern(phonePattern, "Phone number must be 10-14 digits"),
			}},
			{Name: "companyName", Wire: "companyname", Label: "Company Name", Rules: []v.Rule{
				v.Required("Companyname is required"),
				v.MaxLen(200, "Companyname must be at most 200 characters"),
			}},
			{Name: "logo", Wire: "image", Label: "Logo", File: true, Accept: imageTypes, MaxBytes: imageMaxBytes, Rules: []v.Rule{
				v.FileRequired("Image is required"),
			}},
		},
	},

	KindTooltip: {
		Kind:    KindTooltip,
		Title:   "Tooltips",
		ListKey: "tooltips",
		ItemKey: "tooltip",
		Key:     "fieldType",
		Endpoints: Endpoints{
			List:   "/tooltips/view-tooltips",
			Get:    "/tooltips/view-tooltip/%s",
			Create: "/tooltips/create-tooltip",
			Update: "/tooltips/create-tooltip",
		},
		UpdateMethod: http.MethodPost,
		SearchFields: []string{"fieldType", "title", "content"},
		DefaultSort:  "fieldType",
		Fields: []Field{
			{Name: "fieldType", Label: "Field", Rules: []v.Rule{
				v.Required("Field is required"),
				v.OneOf(tooltipFields, "Unknown form field"),
			}},
			{Name: "title", Label: "Title", Rules: []v.Rule{
				v.MaxLen(50, "Title should be max 50 characters"),
			}},
			{Name: "content", Label: "Content", Rules: []v.Rule{
				v.Required("Content is required"),
				v.MaxLen(200, "Content should be max 200 characters"),
			}},
		},
	},

	KindBusiness: category(KindBusiness, "Businesses", "business", "business", "Business Name"),
	KindService:  category(KindService, "Services", "services", "service", "Service Name"),
	KindProduct:  category(KindProduct, "Products", "products", "products", "Product Name"),
}

// category builds the shared schema of the business/service/product tabs,
// which differ only in endpoint names and the name field.
func category(kind Kind, title, listKey, field, label string) Schema {
	k := string(kind)
	return Schema{
		Kind:    kind,
		Title:   title,
		ListKey: listKey,
		Endpoints: Endpoints{
			List:   "/category/get-" + k,
			Create: "/category/create-" + k,
			Update: "/" + k + "/%s",
			Delete: "/category/delete-" + k + "/%s",
		},
		UpdateMethod: http.MethodPost,
		SearchFields: []string{field},
		DefaultSort:  field,
		Fields: []Field{
			{Name: field, Label: label, Rules: []v.Rule{
				v.Required(label + " is required"),
				v.MinLen(2, label+" must be at least 2 characters"),
			}},
		},
	}
}
