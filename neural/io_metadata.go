package neural

import "fmt"

// IODescriptor describes a controller input or output.
type IODescriptor struct {
	ID          string // Unique identifier
	Label       string // Display name
	Description string
	IsCentered  bool   // True for signed values (e.g., -1 to +1)
	Group       string // Logical grouping (e.g., "self", "rays", "drive")
}

// InputDescriptors returns metadata for an observation of the given length:
// forward speed, heading, then one distance per ray.
func InputDescriptors(inputs int) []IODescriptor {
	if inputs <= 0 {
		return nil
	}
	desc := []IODescriptor{
		{ID: "speed", Label: "Speed", Description: "Signed forward speed", IsCentered: true, Group: "self"},
		{ID: "heading", Label: "Heading", Description: "Heading wrapped to (-pi, pi]", IsCentered: true, Group: "self"},
	}
	for i := 2; i < inputs; i++ {
		desc = append(desc, IODescriptor{
			ID:          fmt.Sprintf("ray%d", i-2),
			Label:       fmt.Sprintf("Ray %d", i-2),
			Description: "Distance to the first wall sample, or max range",
			Group:       "rays",
		})
	}
	return desc[:inputs]
}

// OutputDescriptors returns metadata for the two network outputs.
// Order matches the indices read by CenteredMapping.
func OutputDescriptors() []IODescriptor {
	return []IODescriptor{
		{ID: "acc", Label: "Accel", Description: "Throttle (+) or brake (-)", IsCentered: true, Group: "drive"},
		{ID: "steer", Label: "Steer", Description: "Steering command", IsCentered: true, Group: "drive"},
	}
}
