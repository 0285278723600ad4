package cloud

import (
	"context"
	"fmt"
	"time"

	domain "github.com/asavelyev/sentinel-bridge/internal/domain/alarm"
)

// installationsResponse lists the account's sites.
type installationsResponse struct {
	envelope

	Installations []installationDTO `json:"installations"`
}

// installationDTO is one site on the wire.
type installationDTO struct {
	InstallationID string `json:"numinst"`
	Alias          string `json:"alias"`
	Panel          string `json:"panel"`
}

// servicesResponse carries panel/capabilities metadata for one site.
type servicesResponse struct {
	envelope

	InstallationID string `json:"numinst"`
	Panel          string `json:"panel"`
	Capabilities   string `json:"capabilities"`
}

// statusResponse carries the panel state snapshot.
type statusResponse struct {
	envelope

	Status    string `json:"protomResponse"`
	Timestamp string `json:"protomResponseDate"`
}

// commandResponse is the result of an arm or disarm request.
type commandResponse struct {
	envelope

	Status string `json:"status"`
}

// operationRequest is the shared wire payload of installation operations.
type operationRequest struct {
	Operation      string `json:"operation"`
	InstallationID string `json:"numinst,omitempty"`
	Panel          string `json:"panel,omitempty"`
	ForceRefresh   bool   `json:"force_refresh,omitempty"`
	Request        string `json:"request,omitempty"`
	CurrentStatus  string `json:"current_status,omitempty"`
}

// armRequests maps domain arm modes onto vendor request codes.
var armRequests = map[domain.ArmMode]string{
	domain.ArmModeAway:  "ARM1",
	domain.ArmModeHome:  "PERI1",
	domain.ArmModeNight: "ARMNIGHT1",
}

// Installations returns the sites available on the account.
func (c *Client) Installations(ctx context.Context) ([]domain.Installation, error) {
	var resp installationsResponse

	err := c.call(ctx, operationRequest{Operation: "installations"}, &resp)
	if err != nil {
		return nil, fmt.Errorf("installations: %w", err)
	}

	if resp.Res != "OK" {
		return nil, fmt.Errorf("installations: upstream error: %s", resp.Msg)
	}

	result := make([]domain.Installation, 0, len(resp.Installations))
	for _, inst := range resp.Installations {
		result = append(result, domain.Installation{
			ID:    inst.InstallationID,
			Alias: inst.Alias,
			Panel: inst.Panel,
		})
	}

	return result, nil
}

// InstallationServices fetches panel/capabilities metadata for one site.
func (c *Client) InstallationServices(
	ctx context.Context,
	installationID string,
	forceRefresh bool,
) (domain.InstallationServices, error) {
	var resp servicesResponse

	err := c.call(ctx, operationRequest{
		Operation:      "installation_services",
		InstallationID: installationID,
		ForceRefresh:   forceRefresh,
	}, &resp)
	if err != nil {
		return domain.InstallationServices{}, fmt.Errorf("installation services: %w", err)
	}

	if resp.Res != "OK" {
		return domain.InstallationServices{}, fmt.Errorf("installation services: upstream error: %s", resp.Msg)
	}

	return domain.InstallationServices{
		InstallationID: resp.InstallationID,
		Panel:          resp.Panel,
		Capabilities:   resp.Capabilities,
		RetrievedAt:    time.Now(),
	}, nil
}

// AlarmStatus polls the panel state of one site.
func (c *Client) AlarmStatus(ctx context.Context, installationID, panel string) (domain.AlarmStatus, error) {
	var resp statusResponse

	err := c.call(ctx, operationRequest{
		Operation:      "alarm_status",
		InstallationID: installationID,
		Panel:          panel,
	}, &resp)
	if err != nil {
		return domain.AlarmStatus{}, fmt.Errorf("alarm status: %w", err)
	}

	if resp.Res != "OK" {
		return domain.AlarmStatus{}, fmt.Errorf("alarm status: upstream error: %s", resp.Msg)
	}

	timestamp, err := time.Parse(time.RFC3339, resp.Timestamp)
	if err != nil {
		timestamp = time.Now()
	}

	return domain.AlarmStatus{
		Status:    resp.Status,
		Message:   resp.Msg,
		Timestamp: timestamp,
	}, nil
}

// Arm requests the given arming level. The vendor protocol wants the
// current panel status echoed back with the command.
func (c *Client) Arm(
	ctx context.Context,
	installationID string,
	mode domain.ArmMode,
	panel, currentStatus string,
) (domain.ArmResult, error) {
	request, ok := armRequests[mode]
	if !ok {
		return domain.ArmResult{}, fmt.Errorf("arm: unsupported mode %q", mode)
	}

	var resp commandResponse

	err := c.call(ctx, operationRequest{
		Operation:      "arm",
		InstallationID: installationID,
		Panel:          panel,
		Request:        request,
		CurrentStatus:  currentStatus,
	}, &resp)
	if err != nil {
		return domain.ArmResult{}, fmt.Errorf("arm: %w", err)
	}

	return domain.ArmResult{
		Success: resp.Res == "OK",
		Message: resp.Msg,
		Status:  resp.Status,
	}, nil
}

// Disarm requests full disarming of the site.
func (c *Client) Disarm(ctx context.Context, installationID, panel string) (domain.DisarmResult, error) {
	var resp commandResponse

	err := c.call(ctx, operationRequest{
		Operation:      "disarm",
		InstallationID: installationID,
		Panel:          panel,
		Request:        "DARM1",
	}, &resp)
	if err != nil {
		return domain.DisarmResult{}, fmt.Errorf("disarm: %w", err)
	}

	return domain.DisarmResult{
		Success: resp.Res == "OK",
		Message: resp.Msg,
		Status:  resp.Status,
	}, nil
}
