package protocol

import (
	"chat-relay/domain"
	"chat-relay/errors"
	stderrors "errors"
	"slices"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/samber/lo"
)

const (
	tagTextRequired  = "text_required"
	tagImageRequired = "image_required"
	tagBlank         = "blank"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterStructValidation(createMessageRules, CreateMessageRequest{})
	v.RegisterStructValidation(updateMessageRules, UpdateMessageRequest{})
	v.RegisterStructValidation(groupNameRules, CreateGroupRequest{}, UpdateGroupRequest{})
	return v
}

// createMessageRules ties the required content to the message type.
func createMessageRules(sl validator.StructLevel) {
	r := sl.Current().Interface().(CreateMessageRequest)
	t := domain.MessageType(r.Type)
	if t.RequiresText() && strings.TrimSpace(r.Message) == "" {
		sl.ReportError(r.Message, "message", "Message", tagTextRequired, "")
	}
	if t.RequiresImage() && r.ImageURL == "" && r.FirebaseID == "" {
		sl.ReportError(r.ImageURL, "imageUrl", "ImageURL", tagImageRequired, "")
	}
}

func updateMessageRules(sl validator.StructLevel) {
	r := sl.Current().Interface().(UpdateMessageRequest)
	if r.Message != "" && strings.TrimSpace(r.Message) == "" {
		sl.ReportError(r.Message, "message", "Message", tagBlank, "")
	}
}

func groupNameRules(sl validator.StructLevel) {
	var name string
	switch r := sl.Current().Interface().(type) {
	case CreateGroupRequest:
		name = r.Name
	case UpdateGroupRequest:
		name = r.Name
	}
	if name != "" && strings.TrimSpace(name) == "" {
		sl.ReportError(name, "name", "Name", tagBlank, "")
	}
}

var tagCodes = map[string]errors.Code{
	tagTextRequired:  errors.CodeMessageMissing,
	tagImageRequired: errors.CodeImageMissing,
}

var fieldCodes = map[string]errors.Code{
	"Authorization": errors.CodeUnauthenticated,
	"Type":          errors.CodeIllegalAction,
	"Message":       errors.CodeMessageMissing,
	"ChatID":        errors.CodeChatUIDIllegal,
	"MessageID":     errors.CodeMessageUIDIllegal,
	"AccountID":     errors.CodeParticipantsIllegal,
	"Participants":  errors.CodeParticipantsIllegal,
	"Name":          errors.CodeGroupNameMissing,
	"ImageURL":      errors.CodeImageURLIllegal,
	"Token":         errors.CodeTokenMissing,
}

// codeOrder is the order codes are reported in, whatever the field order.
var codeOrder = []errors.Code{
	errors.CodeUnauthenticated,
	errors.CodeIllegalAction,
	errors.CodeMessageMissing,
	errors.CodeImageMissing,
	errors.CodeChatUIDIllegal,
	errors.CodeMessageUIDIllegal,
	errors.CodeParticipantsIllegal,
	errors.CodeGroupNameMissing,
	errors.CodeImageURLIllegal,
	errors.CodeTokenMissing,
}

// Validate checks a payload and returns a validation *errors.Error listing
// every failing code, or nil.
func Validate(payload any) error {
	err := validate.Struct(payload)
	if err == nil {
		return nil
	}
	var fieldErrors validator.ValidationErrors
	if !stderrors.As(err, &fieldErrors) {
		return errors.ErrIllegalAction
	}

	codes := lo.Uniq(lo.FilterMap(fieldErrors, func(fe validator.FieldError, _ int) (errors.Code, bool) {
		return codeFor(fe)
	}))
	if len(codes) == 0 {
		return errors.ErrIllegalAction
	}
	slices.SortFunc(codes, func(a, b errors.Code) int {
		return slices.Index(codeOrder, a) - slices.Index(codeOrder, b)
	})
	return errors.Validation(codes...)
}

func codeFor(fe validator.FieldError) (errors.Code, bool) {
	if code, ok := tagCodes[fe.Tag()]; ok {
		return code, true
	}
	field := fe.StructField()
	if i := strings.IndexByte(field, '['); i >= 0 {
		field = field[:i]
	}
	code, ok := fieldCodes[field]
	return code, ok
}
