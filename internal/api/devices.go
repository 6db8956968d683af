package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/nerrad567/device-inventory/internal/device"
	"github.com/nerrad567/device-inventory/internal/stamp"
)

// createDeviceRequest is the POST /devices body.
// The web form sends check_out_date as "" when unset, so it is decoded as
// a string and parsed only when present.
type createDeviceRequest struct {
	DeviceType   string `json:"device_type"`
	Connectivity string `json:"connectivity"`
	SerialNumber string `json:"serial_number"`
	OSVersion    string `json:"os_version"`
	AssignedUser string `json:"assigned_user"`
	Status       string `json:"status"`
	UsageCount   int    `json:"usage_count"`
	CheckOutDate string `json:"check_out_date"`
}

type checkoutRequest struct {
	User string `json:"user"`
}

// handleListDevices returns every device.
func (s *Server) handleListDevices(w http.ResponseWriter, r *http.Request) {
	devices, err := s.devices.List(r.Context())
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, devices)
}

// handleGetDevice returns one device by ID.
func (s *Server) handleGetDevice(w http.ResponseWriter, r *http.Request) {
	d, err := s.devices.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

// handleSearchDevices returns devices matching the q parameter.
// An empty query yields an empty array.
func (s *Server) handleSearchDevices(w http.ResponseWriter, r *http.Request) {
	devices, err := s.devices.Search(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(devices))
}

// handleRecommendations returns lightly used and outdated devices.
func (s *Server) handleRecommendations(w http.ResponseWriter, r *http.Request) {
	devices, err := s.devices.Recommendations(r.Context())
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(devices))
}

// handleDeviceStats returns device counts by status and type.
func (s *Server) handleDeviceStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.devices.Stats(r.Context())
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// handleCreateDevice registers a device and returns it with 201.
func (s *Server) handleCreateDevice(w http.ResponseWriter, r *http.Request) {
	var req createDeviceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	in := device.NewDevice{
		DeviceType:   req.DeviceType,
		Connectivity: req.Connectivity,
		SerialNumber: req.SerialNumber,
		OSVersion:    req.OSVersion,
		AssignedUser: req.AssignedUser,
		Status:       device.Status(req.Status),
		UsageCount:   req.UsageCount,
	}
	if strings.TrimSpace(req.CheckOutDate) != "" {
		at, err := stamp.ParsePtr(strings.TrimSpace(req.CheckOutDate))
		if err != nil {
			writeError(w, http.StatusBadRequest, ErrCodeValidation, "check_out_date is not a valid timestamp")
			return
		}
		in.CheckOutDate = at
	}

	d, err := s.devices.Create(r.Context(), in)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, d)
}

// handleUpdateDevice changes a device's descriptive fields.
//
// Only device_type, connectivity, serial_number, os_version and updated_by
// are applied. The other device columns are accepted and ignored so a
// fetched device can be sent back whole; any other key is rejected.
func (s *Server) handleUpdateDevice(w http.ResponseWriter, r *http.Request) {
	var patch device.Patch
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&patch); err != nil {
		writeBadRequest(w, "invalid update body: "+err.Error())
		return
	}

	if patch.UpdatedBy == nil {
		if claims := claimsFrom(r.Context()); claims != nil {
			patch.UpdatedBy = &claims.Subject
		}
	}

	d, err := s.devices.Update(r.Context(), chi.URLParam(r, "id"), patch)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

// handleCheckout assigns a device to the user named in the body.
func (s *Server) handleCheckout(w http.ResponseWriter, r *http.Request) {
	var req checkoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	d, err := s.devices.Checkout(r.Context(), chi.URLParam(r, "id"), req.User)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

// handleCheckin returns a checked-out device. Any body is ignored.
func (s *Server) handleCheckin(w http.ResponseWriter, r *http.Request) {
	d, err := s.devices.Checkin(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}
