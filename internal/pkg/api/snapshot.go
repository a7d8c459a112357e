package api

import (
	"cmp"
	"slices"

	"github.com/samber/lo"

	"github.com/anicoll/fleetsync/internal/pkg/model"
)

// The snapshot endpoint embeds related objects inline. These wire types are
// only used to decode it before normalize strips them down to ids.

type wireTag struct {
	ID          model.ID `json:"id"`
	Name        string   `json:"name"`
	Color       string   `json:"color"`
	Description string   `json:"description"`
}

type wireRef struct {
	ID model.ID `json:"id"`
}

type wireIP struct {
	ID          model.ID  `json:"id"`
	DNSName     string    `json:"dns_name"`
	Display     string    `json:"display"`
	Address     string    `json:"address"`
	Description string    `json:"description"`
	Tags        []wireTag `json:"tags"`
}

type wireDevice struct {
	ID         model.ID          `json:"id"`
	Name       string            `json:"name"`
	Serial     string            `json:"serial"`
	Tags       []wireTag         `json:"tags"`
	Location   *wireRef          `json:"location"`
	PrimaryIP  *wireIP           `json:"primary_ip"`
	Role       *model.Role       `json:"device_role"`
	Type       *model.DeviceType `json:"device_type"`
	Interfaces []model.Interface `json:"interfaces"`
	PowerPorts []model.PowerPort `json:"power_ports"`
}

type wireLocation struct {
	ID           model.ID                   `json:"id"`
	Name         string                     `json:"name"`
	Description  *string                    `json:"description"`
	CustomFields model.LocationCustomFields `json:"custom_fields"`
	Parent       *model.LocationParent      `json:"parent"`
}

type snapshotResponse struct {
	Devices   []wireDevice   `json:"devices"`
	Tags      []wireTag      `json:"tags"`
	Locations []wireLocation `json:"locations"`
}

func byName(a, b wireTag) int {
	return cmp.Compare(a.Name, b.Name)
}

func tagIDs(tags []wireTag) []model.ID {
	return lo.Map(tags, func(t wireTag, _ int) model.ID { return t.ID })
}

// normalize turns the embedded response into id-referencing entities.
// Device tags are ordered by tag name. Tag and location membership is derived
// from the devices, so the three maps agree with each other.
func (s snapshotResponse) normalize() model.Snapshot {
	snap := model.Snapshot{
		Devices:   make([]model.Device, 0, len(s.Devices)),
		Tags:      make([]model.Tag, 0, len(s.Tags)),
		Locations: make([]model.Location, 0, len(s.Locations)),
	}

	for _, d := range s.Devices {
		tags := slices.Clone(d.Tags)
		slices.SortStableFunc(tags, byName)
		data := model.DeviceData{
			Name:       d.Name,
			Serial:     d.Serial,
			Tags:       tagIDs(tags),
			Role:       d.Role,
			Type:       d.Type,
			Interfaces: d.Interfaces,
			PowerPorts: d.PowerPorts,
		}
		if d.Location != nil {
			id := d.Location.ID
			data.Location = &id
		}
		if ip := d.PrimaryIP; ip != nil {
			data.PrimaryIP = &model.IP{
				ID:          ip.ID,
				DNSName:     ip.DNSName,
				Display:     ip.Display,
				Address:     ip.Address,
				Description: ip.Description,
				Tags:        tagIDs(ip.Tags),
			}
		}
		snap.Devices = append(snap.Devices, model.Device{ID: d.ID, Data: data})
	}

	hasTag := func(d wireDevice, id model.ID) bool {
		return lo.ContainsBy(d.Tags, func(t wireTag) bool { return t.ID == id })
	}
	inLocation := func(d wireDevice, id model.ID) bool {
		return d.Location != nil && d.Location.ID == id
	}

	for _, t := range s.Tags {
		members := lo.Filter(s.Devices, func(d wireDevice, _ int) bool { return hasTag(d, t.ID) })
		snap.Tags = append(snap.Tags, model.Tag{
			ID: t.ID,
			Data: model.TagData{
				Name:        t.Name,
				Color:       t.Color,
				Description: t.Description,
				Devices:     lo.Map(members, func(d wireDevice, _ int) model.ID { return d.ID }),
			},
		})
	}

	for _, l := range s.Locations {
		members := lo.Filter(s.Devices, func(d wireDevice, _ int) bool { return inLocation(d, l.ID) })
		tags := lo.Filter(s.Tags, func(t wireTag, _ int) bool {
			return lo.ContainsBy(members, func(d wireDevice) bool { return hasTag(d, t.ID) })
		})
		slices.SortStableFunc(tags, byName)
		snap.Locations = append(snap.Locations, model.Location{
			ID: l.ID,
			Data: model.LocationData{
				Name:         l.Name,
				Description:  l.Description,
				CustomFields: l.CustomFields,
				Parent:       l.Parent,
				Tags:         tagIDs(tags),
				Devices:      lo.Map(members, func(d wireDevice, _ int) model.ID { return d.ID }),
			},
		})
	}
	return snap
}
