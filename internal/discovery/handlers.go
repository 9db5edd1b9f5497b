package discovery

import (
    "encoding/json"
    "errors"
    "net/http"
    "strconv"

    "github.com/admnberse-app/berse-backend-sub010/internal/common/utils"
)

type Handler struct {
    service Service
}

func NewHandler(service Service) *Handler {
    return &Handler{service: service}
}

// GetBatch handles GET /api/v1/discovery/batch. Filters come from query
// parameters; session_id continues an existing session.
func (h *Handler) GetBatch(w http.ResponseWriter, r *http.Request) {
    userID := r.Context().Value("userID").(int64)

    filters, err := parseFilters(r)
    if err != nil {
        utils.RespondWithError(w, http.StatusBadRequest, err.Error())
        return
    }
    if err := utils.ValidateStruct(filters); err != nil {
        utils.RespondWithError(w, http.StatusBadRequest, err.Error())
        return
    }

    origin, err := parseOrigin(r)
    if err != nil {
        utils.RespondWithError(w, http.StatusBadRequest, err.Error())
        return
    }

    sessionID := r.URL.Query().Get("session_id")

    batch, err := h.service.GetDiscoveryBatch(r.Context(), userID, *filters, origin, sessionID)
    if err != nil {
        respondServiceError(w, err, "Failed to build discovery batch")
        return
    }

    utils.RespondWithJSON(w, http.StatusOK, batch)
}

// RecordSwipe handles POST /api/v1/discovery/swipes.
func (h *Handler) RecordSwipe(w http.ResponseWriter, r *http.Request) {
    userID := r.Context().Value("userID").(int64)

    var dto RecordSwipeDTO
    if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
        utils.RespondWithError(w, http.StatusBadRequest, "Invalid request payload")
        return
    }
    if err := utils.ValidateStruct(&dto); err != nil {
        utils.RespondWithError(w, http.StatusBadRequest, err.Error())
        return
    }

    result, err := h.service.RecordSwipe(r.Context(), userID, dto.TargetID, SwipeAction(dto.Action), dto.SessionID)
    if err != nil {
        respondServiceError(w, err, "Failed to record swipe")
        return
    }

    utils.RespondWithJSON(w, http.StatusOK, result)
}

// MarkConnectionSent handles POST /api/v1/discovery/swipes/connection-sent.
// Called by the relationship-creation flow after a connection request was
// actually sent.
func (h *Handler) MarkConnectionSent(w http.ResponseWriter, r *http.Request) {
    userID := r.Context().Value("userID").(int64)

    var dto MarkConnectionSentDTO
    if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
        utils.RespondWithError(w, http.StatusBadRequest, "Invalid request payload")
        return
    }
    if err := utils.ValidateStruct(&dto); err != nil {
        utils.RespondWithError(w, http.StatusBadRequest, err.Error())
        return
    }

    if err := h.service.MarkConnectionSent(r.Context(), userID, dto.TargetID, dto.ConnectionID); err != nil {
        respondServiceError(w, err, "Failed to mark connection sent")
        return
    }

    utils.RespondWithJSON(w, http.StatusOK, map[string]string{"message": "Connection marked as sent"})
}

// GetStats handles GET /api/v1/discovery/stats.
func (h *Handler) GetStats(w http.ResponseWriter, r *http.Request) {
    userID := r.Context().Value("userID").(int64)

    stats, err := h.service.GetSwipeStats(r.Context(), userID)
    if err != nil {
        respondServiceError(w, err, "Failed to get swipe stats")
        return
    }

    utils.RespondWithJSON(w, http.StatusOK, stats)
}

func respondServiceError(w http.ResponseWriter, err error, fallback string) {
    switch {
    case errors.Is(err, ErrUserNotFound), errors.Is(err, ErrSessionNotFound):
        utils.RespondWithError(w, http.StatusNotFound, err.Error())
    case errors.Is(err, ErrInvalidAction), errors.Is(err, ErrInvalidFilters):
        utils.RespondWithError(w, http.StatusBadRequest, err.Error())
    default:
        utils.RespondWithError(w, http.StatusInternalServerError, fallback)
    }
}

func parseFilters(r *http.Request) (*Filters, error) {
    q := r.URL.Query()
    filters := &Filters{}

    if v := q.Get("min_age"); v != "" {
        n, err := strconv.Atoi(v)
        if err != nil {
            return nil, errors.New("min_age must be an integer")
        }
        filters.MinAge = &n
    }
    if v := q.Get("max_age"); v != "" {
        n, err := strconv.Atoi(v)
        if err != nil {
            return nil, errors.New("max_age must be an integer")
        }
        filters.MaxAge = &n
    }
    if v := q.Get("distance_km"); v != "" {
        d, err := strconv.ParseFloat(v, 64)
        if err != nil {
            return nil, errors.New("distance_km must be a number")
        }
        filters.DistanceKm = &d
    }
    if v := q.Get("gender"); v != "" {
        filters.Gender = &v
    }
    if v := q.Get("city"); v != "" {
        filters.City = &v
    }
    if v := q.Get("only_verified"); v == "true" {
        filters.OnlyVerified = true
    }
    if v := q.Get("min_trust_score"); v != "" {
        t, err := strconv.ParseFloat(v, 64)
        if err != nil {
            return nil, errors.New("min_trust_score must be a number")
        }
        filters.MinTrustScore = &t
    }
    if v := q.Get("limit"); v != "" {
        n, err := strconv.Atoi(v)
        if err != nil {
            return nil, errors.New("limit must be an integer")
        }
        filters.Limit = &n
    }
    if v := q["interests"]; len(v) > 0 {
        filters.Interests = v
    }

    return filters, nil
}

func parseOrigin(r *http.Request) (*Coordinates, error) {
    q := r.URL.Query()
    latStr, lngStr := q.Get("lat"), q.Get("lng")
    if latStr == "" && lngStr == "" {
        return nil, nil
    }
    if latStr == "" || lngStr == "" {
        return nil, errors.New("lat and lng must be supplied together")
    }

    lat, err := strconv.ParseFloat(latStr, 64)
    if err != nil {
        return nil, errors.New("lat must be a number")
    }
    lng, err := strconv.ParseFloat(lngStr, 64)
    if err != nil {
        return nil, errors.New("lng must be a number")
    }

    return &Coordinates{Lat: lat, Lng: lng}, nil
}
