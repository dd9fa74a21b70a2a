package config

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// Report fields by their JSON names so errors match the config file
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Validate checks if the config has required fields
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return fieldError(verrs[0])
		}
		return err
	}

	if strings.HasPrefix(c.Group.Name, "YOUR_") {
		return errors.New("group.name is required - the chat group whose messages are ingested")
	}

	if c.Storage.Backend == BackendJSONBin {
		if c.Storage.JSONBin.BinID == "" || c.Storage.JSONBin.BinID == "YOUR_BIN_ID" {
			return errors.New("storage.jsonbin.bin_id is required for the jsonbin backend (or set JSONBIN_BIN_ID)")
		}
		if c.Storage.JSONBin.MasterKey == "" || c.Storage.JSONBin.MasterKey == "YOUR_MASTER_KEY" {
			return errors.New("storage.jsonbin.master_key is required for the jsonbin backend (or set JSONBIN_KEY)")
		}
	}

	if c.Chat.TokenURL != "" && (c.Chat.ClientID == "" || c.Chat.ClientSecret == "") {
		return errors.New("chat.client_id and chat.client_secret are required when chat.token_url is set")
	}

	return nil
}

// fieldError converts a validator error into a message naming the config key
func fieldError(e validator.FieldError) error {
	field := e.Namespace()
	if i := strings.Index(field, "."); i >= 0 {
		field = field[i+1:]
	}

	switch e.Tag() {
	case "required":
		return fmt.Errorf("%s is required", field)
	case "oneof":
		return fmt.Errorf("%s must be one of %q, got %q", field, strings.Fields(e.Param()), e.Value())
	case "url":
		return fmt.Errorf("%s must be a valid URL, got %q", field, e.Value())
	case "timezone":
		return fmt.Errorf("%s must be an IANA timezone such as America/Sao_Paulo, got %q", field, e.Value())
	case "gte":
		return fmt.Errorf("%s must be at least %s", field, e.Param())
	}
	return fmt.Errorf("%s is invalid", field)
}
