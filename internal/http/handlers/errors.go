package handlers

import (
	"context"
	"net/http"

	"github.com/yungbote/catalog-mapping-backend/internal/modules/mapping"
	"github.com/yungbote/catalog-mapping-backend/internal/modules/mapping/suggest"
	"github.com/yungbote/catalog-mapping-backend/internal/platform/apierr"
	"github.com/yungbote/catalog-mapping-backend/internal/services"
)

// statusClientClosed is the nginx convention for a request the client abandoned.
const statusClientClosed = 499

var errorRules = []apierr.Rule{
	{Target: mapping.ErrReferenceNotFound, Status: http.StatusNotFound, Code: "reference_not_found"},
	{Target: mapping.ErrMissingSelection, Status: http.StatusBadRequest, Code: "missing_selection"},
	{Target: mapping.ErrDuplicateValueUsage, Status: http.StatusUnprocessableEntity, Code: "duplicate_value_usage"},
	{Target: mapping.ErrInjectivityViolation, Status: http.StatusUnprocessableEntity, Code: "injectivity_violation"},
	{Target: mapping.ErrValuesNotSupported, Status: http.StatusUnprocessableEntity, Code: "values_not_supported"},
	{Target: mapping.ErrNothingToImport, Status: http.StatusUnprocessableEntity, Code: "nothing_to_import"},
	{Target: mapping.ErrPersistenceConflict, Status: http.StatusConflict, Code: "persistence_conflict"},
	{Target: suggest.ErrSuggestionNotFound, Status: http.StatusNotFound, Code: "suggestion_not_found"},
	{Target: suggest.ErrConfirmedMappingProtected, Status: http.StatusConflict, Code: "confirmed_mapping_protected"},
	{Target: services.ErrInvalidDocument, Status: http.StatusBadRequest, Code: "invalid_document"},
	{Target: services.ErrInvalidSide, Status: http.StatusBadRequest, Code: "invalid_side"},
	{Target: context.DeadlineExceeded, Status: http.StatusGatewayTimeout, Code: "timeout"},
	{Target: context.Canceled, Status: statusClientClosed, Code: "request_cancelled"},
}

// toAPIError classifies a service error. Unknown errors become a 500.
func toAPIError(err error) *apierr.Error {
	return apierr.Classify(err, errorRules)
}
