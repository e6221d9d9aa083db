package metadata

/** @brief The name of the material used by the demo scene. */
const DefaultMaterialName string = "defaultmesh"

// MaterialID is the registry index of a material.
type MaterialID uint32

/**
 * @brief A pipeline and the layout it was built with. Binding a material
 * binds both.
 */
type Material struct {
	Name           string
	Pipeline       PipelineHandle
	PipelineLayout PipelineLayoutHandle
}
