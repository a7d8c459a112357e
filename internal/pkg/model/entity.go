package model

// Entity is implemented by the three id-keyed entity kinds.
type Entity interface {
	Ref() Ref
	Generic() GenericStatus
}

type Device struct {
	ID     ID           `json:"id"`
	Data   DeviceData   `json:"data"`
	Status DeviceStatus `json:"status"`
}

func (d Device) Ref() Ref                 { return DeviceRef(d.ID) }
func (d Device) Generic() GenericStatus   { return d.Status.GenericStatus }
func (t Tag) Ref() Ref                    { return TagRef(t.ID) }
func (t Tag) Generic() GenericStatus      { return t.Status }
func (l Location) Ref() Ref               { return LocationRef(l.ID) }
func (l Location) Generic() GenericStatus { return l.Status.GenericStatus }

// DeviceData holds the static attributes delivered by the snapshot.
// Tags and Location are references, resolved through the graph at read time.
type DeviceData struct {
	Name       string      `json:"name"`
	Tags       []ID        `json:"tags"`
	Location   *ID         `json:"location,omitempty"`
	PrimaryIP  *IP         `json:"primary_ip,omitempty"`
	Serial     string      `json:"serial"`
	Role       *Role       `json:"device_role,omitempty"`
	Type       *DeviceType `json:"device_type,omitempty"`
	Interfaces []Interface `json:"interfaces"`
	PowerPorts []PowerPort `json:"power_ports"`
}

type IP struct {
	ID          ID     `json:"id"`
	DNSName     string `json:"dns_name"`
	Display     string `json:"display"`
	Address     string `json:"address"`
	Description string `json:"description,omitempty"`
	Tags        []ID   `json:"tags"`
}

type Role struct {
	ID      ID     `json:"id"`
	Display string `json:"display"`
	Name    string `json:"name"`
}

type Manufacturer struct {
	ID   ID     `json:"id"`
	Name string `json:"name"`
}

type DeviceType struct {
	ID           ID           `json:"id"`
	Model        string       `json:"model"`
	Manufacturer Manufacturer `json:"manufacturer"`
}

type Interface struct {
	ID         ID      `json:"id"`
	Name       *string `json:"name"`
	MACAddress *string `json:"mac_address"`
}

// PowerPort is one inlet of a device and the feeds it is cabled to.
type PowerPort struct {
	ID        ID         `json:"id"`
	Name      string     `json:"name"`
	Label     string     `json:"label"`
	LinkPeers []LinkPeer `json:"link_peers"`
}

type LinkPeer struct {
	ID         ID          `json:"id"`
	Name       string      `json:"name"`
	PowerPanel *PowerPanel `json:"power_panel,omitempty"`
}

type PowerPanel struct {
	ID   ID     `json:"id"`
	Name string `json:"name"`
}

type Tag struct {
	ID     ID            `json:"id"`
	Data   TagData       `json:"data"`
	Status GenericStatus `json:"status"`
}

type TagData struct {
	Name        string `json:"name"`
	Color       string `json:"color"`
	Description string `json:"description"`
	Devices     []ID   `json:"devices"`
}

type Location struct {
	ID     ID             `json:"id"`
	Data   LocationData   `json:"data"`
	Status LocationStatus `json:"status"`
}

type LocationData struct {
	Name         string               `json:"name"`
	Description  *string              `json:"description"`
	CustomFields LocationCustomFields `json:"custom_fields"`
	Parent       *LocationParent      `json:"parent"`
	Tags         []ID                 `json:"tags"`
	Devices      []ID                 `json:"devices"`
}

type LocationCustomFields struct {
	KNXSwitchGroupAddresses *string `json:"knx_switch_group_addresses"`
}

// LocationParent is embedded by value; the parent is not itself resolved through the graph.
type LocationParent struct {
	ID          ID      `json:"id"`
	Name        string  `json:"name"`
	Description *string `json:"description"`
}

// Snapshot is a normalized bulk load of the three entity maps.
type Snapshot struct {
	Devices   []Device
	Tags      []Tag
	Locations []Location
}
