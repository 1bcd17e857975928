package gpu

// Buffer binding slots shared by every program.
const (
	BindingCamera      uint32 = 0
	BindingLights      uint32 = 1
	BindingMaterial    uint32 = 2
	BindingModel       uint32 = 3
	BindingShadow      uint32 = 4
	BindingCullObjects uint32 = 5
)

// Image units used by the depth pyramid compute programs.
const (
	ImageUnitSource uint32 = 0
	ImageUnitDest   uint32 = 1
)

// Texture units with a fixed meaning.
const (
	TextureUnitShadow     uint32 = 4
	TextureUnitReflection uint32 = 5
	TextureUnitOutline    uint32 = 6
	TextureUnitDepth      uint32 = 7
)

// Camera block (std140): view, projection, viewProj, position.
const (
	CameraViewOffset     = 0
	CameraProjOffset     = 64
	CameraViewProjOffset = 128
	CameraPosOffset      = 192
	CameraClipOffset     = 208
	CameraBlockSize      = 224
)

// Model block (std140): model, normal matrix, draw id.
const (
	ModelMatrixOffset = 0
	ModelNormalOffset = 64
	ModelIDOffset     = 128
	ModelBlockSize    = 144
)

// Material blocks start with the base colour.
const MaterialColorOffset = 0
