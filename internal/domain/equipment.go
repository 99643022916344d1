package domain

// EquipmentType enumerates serviceable HVAC equipment categories.
type EquipmentType string

const (
	EquipmentAirConditioner    EquipmentType = "AIR_CONDITIONER"
	EquipmentHeatPump          EquipmentType = "HEAT_PUMP"
	EquipmentFurnace           EquipmentType = "FURNACE"
	EquipmentBoiler            EquipmentType = "BOILER"
	EquipmentVentilationSystem EquipmentType = "VENTILATION_SYSTEM"
	EquipmentThermostat        EquipmentType = "THERMOSTAT"
	EquipmentDuctwork          EquipmentType = "DUCTWORK"
	EquipmentRadiator          EquipmentType = "RADIATOR"
	EquipmentHeatExchanger     EquipmentType = "HEAT_EXCHANGER"
	EquipmentOther             EquipmentType = "OTHER"
)

// Skill identifies a technician capability.
type Skill string

const (
	SkillHVACBasics         Skill = "HVAC_BASICS"
	SkillRefrigeration      Skill = "REFRIGERATION"
	SkillElectrical         Skill = "ELECTRICAL"
	SkillControls           Skill = "CONTROLS"
	SkillGasSystems         Skill = "GAS_SYSTEMS"
	SkillHydronicSystems    Skill = "HYDRONIC_SYSTEMS"
	SkillAirflow            Skill = "AIRFLOW"
	SkillInstallation       Skill = "INSTALLATION"
	SkillGeneralMaintenance Skill = "GENERAL_MAINTENANCE"
)
